package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/username/desk-o-meter/pkg/dateutil"
)

const nagerUS2025 = `[
  {"date":"2025-01-01","localName":"New Year's Day","name":"New Year's Day","countryCode":"US","global":true,"counties":null,"types":["Public"]},
  {"date":"2025-03-31","localName":"César Chávez Day","name":"César Chávez Day","countryCode":"US","global":false,"counties":["US-CA","US-CO","US-TX"],"types":["Public"]},
  {"date":"2025-04-21","localName":"Patriots' Day","name":"Patriots' Day","countryCode":"US","global":false,"counties":["US-MA","US-ME"],"types":["Public"]},
  {"date":"2025-07-04","localName":"Independence Day","name":"Independence Day","countryCode":"US","global":true,"counties":null,"types":["Public"]}
]`

func newNagerServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/api/v3/PublicHolidays/2025/US":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(nagerUS2025))
		case "/api/v3/PublicHolidays/2025/ZZ":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNagerCalendar_Resolve(t *testing.T) {
	var hits int32
	server := newNagerServer(t, &hits)
	nc := NewNagerCalendar(server.URL, time.Hour, zap.NewNop())

	tests := []struct {
		name  string
		state string
		want  []string
	}{
		{"country only", "", []string{"2025-01-01", "2025-07-04"}},
		{"california", "CA", []string{"2025-01-01", "2025-03-31", "2025-07-04"}},
		{"massachusetts lower case", "ma", []string{"2025-01-01", "2025-04-21", "2025-07-04"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := nc.Resolve(context.Background(), "us", tt.state, 2025)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			got := h.Dates()
			if len(got) != len(tt.want) {
				t.Fatalf("Resolve() dates = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("date[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}

	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("API called %d times, want 1 (cached per country and year)", hits)
	}

	name, _ := mustResolve(t, nc, "US", "", 2025).Lookup(dateutil.Date(2025, time.July, 4))
	if name != "Independence Day" {
		t.Errorf("holiday name = %q", name)
	}
}

func mustResolve(t *testing.T, r HolidayResolver, country, state string, year int) Holidays {
	t.Helper()
	h, err := r.Resolve(context.Background(), country, state, year)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return h
}

func TestNagerCalendar_Errors(t *testing.T) {
	var hits int32
	server := newNagerServer(t, &hits)
	nc := NewNagerCalendar(server.URL, time.Hour, zap.NewNop())
	ctx := context.Background()

	if _, err := nc.Resolve(ctx, "ZZ", "", 2025); !errors.Is(err, ErrUnsupportedRegion) {
		t.Errorf("unknown country: error = %v, want ErrUnsupportedRegion", err)
	}
	if _, err := nc.Resolve(ctx, "", "", 2025); !errors.Is(err, ErrUnsupportedRegion) {
		t.Errorf("empty country: error = %v, want ErrUnsupportedRegion", err)
	}

	_, err := nc.Resolve(ctx, "US", "", 1999)
	if err == nil || errors.Is(err, ErrUnsupportedRegion) {
		t.Errorf("server error: error = %v, want non-region error", err)
	}
}

func TestNagerCalendar_ClearCache(t *testing.T) {
	var hits int32
	server := newNagerServer(t, &hits)
	nc := NewNagerCalendar(server.URL, time.Hour, zap.NewNop())

	mustResolve(t, nc, "US", "", 2025)
	nc.ClearCache()
	mustResolve(t, nc, "US", "", 2025)

	if atomic.LoadInt32(&hits) != 2 {
		t.Errorf("API called %d times, want 2", hits)
	}
}
