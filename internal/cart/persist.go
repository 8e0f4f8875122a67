package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feastlyapp/feastly-backend/pkg/logger"
	"github.com/feastlyapp/feastly-backend/pkg/redis"
	"github.com/feastlyapp/feastly-backend/pkg/types"
)

// schemaVersion guards the persisted envelope so future layout changes can
// migrate old carts instead of misreading them.
const schemaVersion = 1

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(userID string) string
}

// Adapter mirrors cart state to the key-value store. It is the only component
// that touches the store for cart data; everything else goes through the
// service.
type Adapter struct {
	kv   kvStore
	logg *logger.Logger
	ttl  time.Duration
}

// NewAdapter builds the persistence adapter.
func NewAdapter(kv kvStore, logg *logger.Logger, ttl time.Duration) (*Adapter, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Adapter{kv: kv, logg: logg, ttl: ttl}, nil
}

type persistedItem struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Price          decimal.Decimal      `json:"price"`
	Quantity       int                  `json:"quantity"`
	Customizations types.Customizations `json:"customizations,omitempty"`
}

type envelope struct {
	Version int             `json:"v"`
	Items   []persistedItem `json:"items"`
}

// Hydrate rebuilds cart state from the store. It never fails: a missing key,
// a read error, or a decode error all degrade to an empty cart, with a logged
// warning for anything other than a missing key. Line handles are reassigned
// on every hydration.
func (a *Adapter) Hydrate(ctx context.Context, userID string) State {
	raw, err := a.kv.Get(ctx, a.kv.CartKey(userID))
	if err != nil {
		if !redis.IsNil(err) {
			ctx = a.logg.WithFields(ctx, map[string]any{"user_id": userID, "error": err.Error()})
			a.logg.Warn(ctx, "cart hydrate read failed, starting empty")
		}
		return NewState()
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		ctx = a.logg.WithFields(ctx, map[string]any{"user_id": userID, "error": err.Error()})
		a.logg.Warn(ctx, "cart hydrate decode failed, starting empty")
		return NewState()
	}
	if env.Version != schemaVersion {
		ctx = a.logg.WithFields(ctx, map[string]any{"user_id": userID, "version": env.Version})
		a.logg.Warn(ctx, "cart hydrate version mismatch, starting empty")
		return NewState()
	}

	items := make([]LineItem, 0, len(env.Items))
	for _, entry := range env.Items {
		if entry.ID == "" || entry.Quantity <= 0 {
			continue
		}
		items = append(items, LineItem{
			LineID:         newLineID(entry.ID),
			ItemID:         entry.ID,
			Name:           entry.Name,
			Price:          entry.Price,
			Quantity:       entry.Quantity,
			Customizations: entry.Customizations,
		})
	}
	return State{Items: items}
}

// Persist writes the full item list under the user's cart key, replacing the
// previous contents. Line handles are stripped first. Failures are logged and
// swallowed: the in-memory state stays authoritative and the next successful
// write reconciles storage. Exactly one write per call, no retry.
func (a *Adapter) Persist(ctx context.Context, userID string, items []LineItem) {
	env := envelope{Version: schemaVersion, Items: make([]persistedItem, 0, len(items))}
	for _, line := range items {
		env.Items = append(env.Items, persistedItem{
			ID:             line.ItemID,
			Name:           line.Name,
			Price:          line.Price,
			Quantity:       line.Quantity,
			Customizations: line.Customizations,
		})
	}

	payload, err := json.Marshal(env)
	if err != nil {
		ctx = a.logg.WithFields(ctx, map[string]any{"user_id": userID, "error": err.Error()})
		a.logg.Warn(ctx, "cart persist encode failed")
		return
	}

	if err := a.kv.Set(ctx, a.kv.CartKey(userID), string(payload), a.ttl); err != nil {
		ctx = a.logg.WithFields(ctx, map[string]any{"user_id": userID, "error": err.Error()})
		a.logg.Warn(ctx, "cart persist write failed")
	}
}
