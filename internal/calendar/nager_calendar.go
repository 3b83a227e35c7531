package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultNagerURL = "https://date.nager.at"
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 24 * time.Hour
)

// NagerCalendar implements HolidayResolver using a Nager.Date compatible API
type NagerCalendar struct {
	apiURL     string
	cacheTTL   time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	cache      map[string]*cachedYear
	cacheMu    sync.RWMutex
}

type cachedYear struct {
	data      []nagerHoliday
	fetchedAt time.Time
}

// nagerHoliday represents one entry of /api/v3/PublicHolidays
type nagerHoliday struct {
	Date        string   `json:"date"`
	LocalName   string   `json:"localName"`
	Name        string   `json:"name"`
	CountryCode string   `json:"countryCode"`
	Global      bool     `json:"global"`
	Counties    []string `json:"counties"`
	Types       []string `json:"types"`
}

// NewNagerCalendar creates a new NagerCalendar instance
func NewNagerCalendar(apiURL string, cacheTTL time.Duration, logger *zap.Logger) *NagerCalendar {
	if apiURL == "" {
		apiURL = defaultNagerURL
	}
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}

	return &NagerCalendar{
		apiURL:   strings.TrimRight(apiURL, "/"),
		cacheTTL: cacheTTL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
		cache:  make(map[string]*cachedYear),
	}
}

// Resolve returns the holidays of the country for the year. With a state, only
// nationwide holidays and those of that state are kept.
func (nc *NagerCalendar) Resolve(ctx context.Context, country, state string, year int) (Holidays, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		return nil, unsupported(country, state, year)
	}

	entries, err := nc.yearEntries(ctx, country, year)
	if err != nil {
		if isUnsupported(err) {
			return nil, unsupported(country, state, year)
		}
		return nil, err
	}

	region := RegionCode(country, state)
	holidays := make(Holidays, len(entries))
	for _, e := range entries {
		if !e.Global && !appliesTo(e.Counties, region) {
			continue
		}

		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			nc.logger.Warn("Failed to parse date",
				zap.String("date", e.Date),
				zap.Error(err))
			continue
		}

		name := e.Name
		if name == "" {
			name = e.LocalName
		}
		holidays.Add(date, name)
	}

	return holidays, nil
}

// yearEntries returns raw entries of the country, from cache when fresh
func (nc *NagerCalendar) yearEntries(ctx context.Context, country string, year int) ([]nagerHoliday, error) {
	cacheKey := fmt.Sprintf("%s-%d", country, year)

	nc.cacheMu.RLock()
	if cached, ok := nc.cache[cacheKey]; ok {
		if time.Since(cached.fetchedAt) < nc.cacheTTL {
			nc.cacheMu.RUnlock()
			nc.logger.Debug("Using cached holidays",
				zap.String("country", country),
				zap.Int("year", year))
			return cached.data, nil
		}
	}
	nc.cacheMu.RUnlock()

	entries, err := nc.fetchYear(ctx, country, year)
	if err != nil {
		return nil, err
	}

	nc.cacheMu.Lock()
	nc.cache[cacheKey] = &cachedYear{
		data:      entries,
		fetchedAt: time.Now(),
	}
	nc.cacheMu.Unlock()

	nc.logger.Info("Holidays fetched and cached",
		zap.String("country", country),
		zap.Int("year", year),
		zap.Int("holidays", len(entries)))

	return entries, nil
}

type statusError int

func (s statusError) Error() string {
	return fmt.Sprintf("API returned status %d", int(s))
}

func isUnsupported(err error) bool {
	status, ok := err.(statusError)
	if !ok {
		return false
	}
	return status == http.StatusNotFound || status == http.StatusBadRequest || status == http.StatusNoContent
}

// fetchYear fetches the year from the API
func (nc *NagerCalendar) fetchYear(ctx context.Context, country string, year int) ([]nagerHoliday, error) {
	// Build URL: https://date.nager.at/api/v3/PublicHolidays/{year}/{country}
	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", nc.apiURL, year, country)

	nc.logger.Debug("Fetching holidays",
		zap.String("url", url),
		zap.Int("year", year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := nc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holidays: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	var entries []nagerHoliday
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	return entries, nil
}

// ClearCache clears the cache
func (nc *NagerCalendar) ClearCache() {
	nc.cacheMu.Lock()
	defer nc.cacheMu.Unlock()

	nc.cache = make(map[string]*cachedYear)
	nc.logger.Info("Holiday cache cleared")
}

func appliesTo(counties []string, region string) bool {
	for _, c := range counties {
		if strings.EqualFold(c, region) {
			return true
		}
	}
	return false
}
