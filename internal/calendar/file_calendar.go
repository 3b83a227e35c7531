package calendar

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileCalendar implements HolidayResolver using a local text file
type FileCalendar struct {
	filePath string
	logger   *zap.Logger

	mu      sync.RWMutex
	entries map[string][]fileEntry // key: country
}

type fileEntry struct {
	date   time.Time
	region string // COUNTRY or COUNTRY-STATE
	name   string
}

// NewFileCalendar creates a new FileCalendar instance
func NewFileCalendar(filePath string, logger *zap.Logger) *FileCalendar {
	return &FileCalendar{
		filePath: filePath,
		logger:   logger,
		entries:  make(map[string][]fileEntry),
	}
}

// Load loads holiday data from file
func (fc *FileCalendar) Load() error {
	file, err := os.Open(fc.filePath)
	if err != nil {
		return fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer file.Close()

	return fc.LoadFrom(file)
}

// LoadFrom replaces loaded data with holidays read from r
func (fc *FileCalendar) LoadFrom(r io.Reader) error {
	entries := make(map[string][]fileEntry)
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Format: YYYY-MM-DD REGION name
		// Example: 2025-07-04 US Independence Day
		parts := strings.Fields(line)
		if len(parts) < 2 {
			fc.logger.Warn("Invalid line format",
				zap.Int("line", lineNo),
				zap.String("content", line))
			continue
		}

		date, err := time.Parse("2006-01-02", parts[0])
		if err != nil {
			fc.logger.Warn("Failed to parse date", zap.String("date", parts[0]), zap.Error(err))
			continue
		}

		region := strings.ToUpper(parts[1])
		country, _, _ := strings.Cut(region, "-")
		name := strings.Join(parts[2:], " ")
		if name == "" {
			name = "Holiday"
		}

		entries[country] = append(entries[country], fileEntry{
			date:   date,
			region: region,
			name:   name,
		})
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading calendar file: %w", err)
	}

	fc.mu.Lock()
	fc.entries = entries
	fc.mu.Unlock()

	fc.logger.Info("Calendar file loaded",
		zap.String("file", fc.filePath),
		zap.Int("countries", len(entries)))

	return nil
}

// Resolve returns nationwide holidays of the country plus those of the state.
// A country or year the file has no lines for is unsupported.
func (fc *FileCalendar) Resolve(_ context.Context, country, state string, year int) (Holidays, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	region := RegionCode(country, state)

	fc.mu.RLock()
	defer fc.mu.RUnlock()

	holidays := make(Holidays)
	covered := false
	for _, e := range fc.entries[country] {
		if e.date.Year() != year {
			continue
		}
		covered = true
		if e.region == country || e.region == region {
			holidays.Add(e.date, e.name)
		}
	}

	if !covered {
		return nil, unsupported(country, state, year)
	}

	return holidays, nil
}
