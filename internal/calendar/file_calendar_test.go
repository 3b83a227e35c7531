package calendar

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/username/desk-o-meter/pkg/dateutil"
)

const holidayFile = `# company holiday list
2025-01-01 US New Year's Day
2025-03-31 US-CA Cesar Chavez Day
2025-11-27 US Thanksgiving
2025-11-28 US Day after Thanksgiving
2025-10-03 DE Tag der Deutschen Einheit
not-a-date US Broken
2025-12-25
`

func TestFileCalendar_Resolve(t *testing.T) {
	fc := NewFileCalendar("inline", zap.NewNop())
	if err := fc.LoadFrom(strings.NewReader(holidayFile)); err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	us := mustResolve(t, fc, "US", "", 2025)
	if len(us) != 3 {
		t.Errorf("US holidays = %v, want 3", us.Dates())
	}
	if name, _ := us.Lookup(dateutil.Date(2025, time.November, 28)); name != "Day after Thanksgiving" {
		t.Errorf("name = %q", name)
	}

	ca := mustResolve(t, fc, "us", "ca", 2025)
	if _, ok := ca.Lookup(dateutil.Date(2025, time.March, 31)); !ok || len(ca) != 4 {
		t.Errorf("US-CA holidays = %v", ca.Dates())
	}

	tx := mustResolve(t, fc, "US", "TX", 2025)
	if _, ok := tx.Lookup(dateutil.Date(2025, time.March, 31)); ok {
		t.Error("California holiday leaked into Texas")
	}
}

func TestFileCalendar_Unsupported(t *testing.T) {
	fc := NewFileCalendar("inline", zap.NewNop())
	if err := fc.LoadFrom(strings.NewReader(holidayFile)); err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	ctx := context.Background()
	if _, err := fc.Resolve(ctx, "FR", "", 2025); !errors.Is(err, ErrUnsupportedRegion) {
		t.Errorf("unknown country: error = %v", err)
	}
	if _, err := fc.Resolve(ctx, "US", "", 2030); !errors.Is(err, ErrUnsupportedRegion) {
		t.Errorf("year without data: error = %v", err)
	}
}

func TestFileCalendar_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.txt")
	if err := os.WriteFile(path, []byte(holidayFile), 0o644); err != nil {
		t.Fatal(err)
	}

	fc := NewFileCalendar(path, zap.NewNop())
	if err := fc.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if de := mustResolve(t, fc, "DE", "BY", 2025); len(de) != 1 {
		t.Errorf("DE holidays = %v", de.Dates())
	}

	missing := NewFileCalendar(filepath.Join(t.TempDir(), "nope.txt"), zap.NewNop())
	if err := missing.Load(); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}
