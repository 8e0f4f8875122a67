package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Customizations holds the modifier selections attached to a cart line item
// (add-ons, spice level, and similar). Keys are modifier names; values are
// whatever shape the menu declares for that modifier.
type Customizations map[string]any

// Canonical returns a key-order-independent JSON rendering. Two semantically
// identical customization payloads always canonicalize to the same string,
// regardless of the key order at the call site.
func (c Customizations) Canonical() string {
	if len(c) == 0 {
		return "{}"
	}
	// encoding/json sorts map keys at every nesting level.
	buf, err := json.Marshal(map[string]any(c))
	if err != nil {
		return "{}"
	}
	return string(buf)
}

// Equal compares two payloads by canonical form.
func (c Customizations) Equal(other Customizations) bool {
	return c.Canonical() == other.Canonical()
}

// Clone returns a shallow-per-key deep-enough copy for reducer semantics:
// the returned map can be stored on a new state without aliasing the caller's map.
func (c Customizations) Clone() Customizations {
	if c == nil {
		return nil
	}
	out := make(Customizations, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Value marshals the map into JSON for the database.
func (c Customizations) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes a JSON column into the map.
func (c *Customizations) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("customizations: unsupported scan type %T", value)
	}

	if len(raw) == 0 {
		*c = nil
		return nil
	}
	return json.Unmarshal(raw, c)
}
