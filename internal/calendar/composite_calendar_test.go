package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestCompositeCalendar_Resolve(t *testing.T) {
	primaryHolidays := Holidays{"2025-07-04": "Independence Day"}
	fallbackHolidays := Holidays{"2025-12-25": "Christmas Day"}
	transport := errors.New("timeout")

	tests := []struct {
		name            string
		primaryErr      error
		fallbackErr     error
		want            Holidays
		wantErr         error
		wantUnsupported bool
	}{
		{name: "primary ok", want: primaryHolidays},
		{name: "primary down", primaryErr: transport, want: fallbackHolidays},
		{name: "primary unsupported", primaryErr: unsupported("US", "", 2025), want: fallbackHolidays},
		{name: "both unsupported", primaryErr: unsupported("US", "", 2025), fallbackErr: unsupported("US", "", 2025), wantUnsupported: true},
		{name: "primary down, fallback has no data", primaryErr: transport, fallbackErr: unsupported("US", "", 2025), wantErr: transport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &stubResolver{holidays: primaryHolidays, err: tt.primaryErr}
			fallback := &stubResolver{holidays: fallbackHolidays, err: tt.fallbackErr}
			cc := NewCompositeCalendar(primary, fallback, zap.NewNop())

			got, err := cc.Resolve(context.Background(), "US", "", 2025)
			switch {
			case tt.wantUnsupported:
				if !errors.Is(err, ErrUnsupportedRegion) {
					t.Errorf("error = %v, want ErrUnsupportedRegion", err)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) || errors.Is(err, ErrUnsupportedRegion) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			default:
				if err != nil {
					t.Fatalf("Resolve() error = %v", err)
				}
				if len(got) != 1 || got.Dates()[0] != tt.want.Dates()[0] {
					t.Errorf("Resolve() = %v, want %v", got, tt.want)
				}
			}

			if tt.primaryErr == nil && fallback.calls != 0 {
				t.Error("fallback consulted although primary succeeded")
			}
		})
	}
}

type memoryStore struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failGet bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if m.failGet {
		return "", false, errors.New("connection reset")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func TestRedisCache_Resolve(t *testing.T) {
	next := &stubResolver{holidays: Holidays{"2025-01-01": "New Year's Day"}}
	store := newMemoryStore()
	rc := NewRedisCache(next, store, time.Hour, zap.NewNop())

	first := mustResolve(t, rc, "us", "ca", 2025)
	second := mustResolve(t, rc, "US", "CA", 2025)

	if next.calls != 1 {
		t.Errorf("underlying resolver called %d times, want 1", next.calls)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("got %v and %v", first, second)
	}

	raw, ok := store.data["holidays:US:CA:2025"]
	if !ok {
		t.Fatalf("cache keys = %v", store.data)
	}
	var cached Holidays
	if err := json.Unmarshal([]byte(raw), &cached); err != nil || cached["2025-01-01"] != "New Year's Day" {
		t.Errorf("cached value = %s (%v)", raw, err)
	}
	if store.ttls["holidays:US:CA:2025"] != time.Hour {
		t.Errorf("ttl = %v", store.ttls["holidays:US:CA:2025"])
	}
}

func TestRedisCache_Degrades(t *testing.T) {
	store := newMemoryStore()
	store.failGet = true
	next := &stubResolver{holidays: Holidays{"2025-01-01": "New Year's Day"}}
	rc := NewRedisCache(next, store, time.Hour, zap.NewNop())

	if h := mustResolve(t, rc, "US", "", 2025); len(h) != 1 {
		t.Errorf("Resolve() = %v", h)
	}

	unsupportedNext := &stubResolver{err: unsupported("XX", "", 2025)}
	rc = NewRedisCache(unsupportedNext, newMemoryStore(), time.Hour, zap.NewNop())
	if _, err := rc.Resolve(context.Background(), "XX", "", 2025); !errors.Is(err, ErrUnsupportedRegion) {
		t.Errorf("error = %v", err)
	}
}
