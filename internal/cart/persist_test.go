package cart

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/feastlyapp/feastly-backend/pkg/logger"
	"github.com/feastlyapp/feastly-backend/pkg/types"
)

type fakeKV struct {
	data    map[string]string
	getErr  error
	setErr  error
	setKeys []string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	val, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return val, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setKeys = append(f.setKeys, key)
	f.data[key] = value.(string)
	return nil
}

func (f *fakeKV) CartKey(userID string) string {
	return "feastly:cart:" + userID
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestAdapter(t *testing.T, kv kvStore) *Adapter {
	t.Helper()
	adapter, err := NewAdapter(kv, testLogger(), time.Hour)
	if err != nil {
		t.Fatalf("build adapter: %v", err)
	}
	return adapter
}

func TestPersistHydrateRoundTrip(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	adapter := newTestAdapter(t, kv)

	st := AddItem(NewState(), wings(), 2, types.Customizations{"spice": "hot"})
	st = AddItem(st, CatalogItem{ID: "cola", Name: "Cola", Price: decimal.NewFromFloat(1.50)}, 3, nil)

	adapter.Persist(context.Background(), "u1", st.Items)
	restored := adapter.Hydrate(context.Background(), "u1")

	if len(restored.Items) != len(st.Items) {
		t.Fatalf("expected %d items after round trip, got %d", len(st.Items), len(restored.Items))
	}

	byKey := map[string]LineItem{}
	for _, line := range restored.Items {
		byKey[line.ItemID+"|"+line.Customizations.Canonical()] = line
	}
	for _, want := range st.Items {
		got, ok := byKey[want.ItemID+"|"+want.Customizations.Canonical()]
		if !ok {
			t.Fatalf("item %q missing after round trip", want.ItemID)
		}
		if got.Quantity != want.Quantity {
			t.Fatalf("item %q quantity: expected %d, got %d", want.ItemID, want.Quantity, got.Quantity)
		}
		if !got.Price.Equal(want.Price) {
			t.Fatalf("item %q price: expected %s, got %s", want.ItemID, want.Price, got.Price)
		}
		if got.LineID == want.LineID {
			t.Fatalf("line handle %q survived persistence", want.LineID)
		}
	}
}

func TestPersistStripsLineHandles(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	adapter := newTestAdapter(t, kv)

	st := AddItem(NewState(), wings(), 1, nil)
	adapter.Persist(context.Background(), "u1", st.Items)

	raw := kv.data[kv.CartKey("u1")]
	if raw == "" {
		t.Fatal("nothing written")
	}
	for _, forbidden := range []string{"LineID", "lineId", "line_id", "uniqueId"} {
		if strings.Contains(raw, forbidden) {
			t.Fatalf("persisted payload leaks runtime handle (%s): %s", forbidden, raw)
		}
	}
	if !strings.Contains(raw, `"v":1`) {
		t.Fatalf("persisted payload missing schema version: %s", raw)
	}
}

func TestHydrateMissingKeyYieldsEmpty(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, newFakeKV())
	st := adapter.Hydrate(context.Background(), "nobody")

	if len(st.Items) != 0 {
		t.Fatalf("expected empty state, got %d items", len(st.Items))
	}
}

func TestHydrateDecodeFailureYieldsEmpty(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.data[kv.CartKey("u1")] = "{not json"
	adapter := newTestAdapter(t, kv)

	st := adapter.Hydrate(context.Background(), "u1")
	if len(st.Items) != 0 {
		t.Fatalf("expected empty state on decode failure, got %d items", len(st.Items))
	}
}

func TestHydrateVersionMismatchYieldsEmpty(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.data[kv.CartKey("u1")] = `{"v":99,"items":[{"id":"wing","price":"5","quantity":1}]}`
	adapter := newTestAdapter(t, kv)

	st := adapter.Hydrate(context.Background(), "u1")
	if len(st.Items) != 0 {
		t.Fatalf("expected empty state on version mismatch, got %d items", len(st.Items))
	}
}

func TestHydrateReadErrorYieldsEmpty(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.getErr = errors.New("connection reset")
	adapter := newTestAdapter(t, kv)

	st := adapter.Hydrate(context.Background(), "u1")
	if len(st.Items) != 0 {
		t.Fatalf("expected empty state on read error, got %d items", len(st.Items))
	}
}

func TestPersistWriteErrorIsSwallowed(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.setErr = errors.New("store offline")
	adapter := newTestAdapter(t, kv)

	st := AddItem(NewState(), wings(), 1, nil)
	// must not panic and must not retry
	adapter.Persist(context.Background(), "u1", st.Items)

	if len(kv.setKeys) != 0 {
		t.Fatalf("expected no successful writes, got %v", kv.setKeys)
	}
}
