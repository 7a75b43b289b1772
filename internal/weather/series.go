package weather

import (
	"sort"

	"github.com/pkg/errors"
)

// Physically plausible bounds for a daily average temperature in °C.
const (
	MinPlausibleC = -60.0
	MaxPlausibleC = 60.0
)

var (
	// ErrDuplicateDate is returned when a date already has an observation.
	ErrDuplicateDate = errors.New("duplicate observation date")
	// ErrImplausibleTemp is returned for readings outside the plausible range.
	ErrImplausibleTemp = errors.New("temperature outside plausible range")
)

// Observation is one calendar date's average temperature reading.
type Observation struct {
	Date  string // 2006-01-02
	TempC float64
}

// Series is a date-keyed daily temperature table. Exactly one observation
// per calendar date. The pipeline is strictly sequential, so the table is
// not guarded by a lock.
type Series struct {
	byDate map[string]Observation
}

func NewSeries() *Series {
	return &Series{byDate: make(map[string]Observation)}
}

// Add inserts an observation, enforcing the one-per-date and plausible-range
// invariants.
func (s *Series) Add(obs Observation) error {
	if obs.TempC < MinPlausibleC || obs.TempC > MaxPlausibleC {
		return errors.Wrapf(ErrImplausibleTemp, "%s: %.1f°C", obs.Date, obs.TempC)
	}
	if _, ok := s.byDate[obs.Date]; ok {
		return errors.Wrapf(ErrDuplicateDate, "%s", obs.Date)
	}
	s.byDate[obs.Date] = obs
	return nil
}

// Lookup returns the temperature for a date key, if observed.
func (s *Series) Lookup(date string) (float64, bool) {
	obs, ok := s.byDate[date]
	if !ok {
		return 0, false
	}
	return obs.TempC, true
}

// Dates returns all observed date keys in ascending order.
func (s *Series) Dates() []string {
	dates := make([]string, 0, len(s.byDate))
	for d := range s.byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Len returns the number of observed dates.
func (s *Series) Len() int {
	return len(s.byDate)
}
