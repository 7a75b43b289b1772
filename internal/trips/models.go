package trips

import (
	"time"
)

// DateKeyLayout is the calendar-date key used to join trips with weather
// observations.
const DateKeyLayout = "2006-01-02"

// Record is one bicycle rental event, normalized from a monthly source file.
type Record struct {
	RideID           string
	RideableType     string
	StartedAt        time.Time
	EndedAt          time.Time
	StartStationName string
	StartStationID   string
	EndStationName   string
	EndStationID     string
	StartLat         float64
	StartLng         float64
	EndLat           float64
	EndLng           float64
	MemberCasual     string
}

// DateKey returns the canonical calendar-date key of the trip's start.
func (r Record) DateKey() string {
	return r.StartedAt.Format(DateKeyLayout)
}

// DropReport counts rows discarded during cleaning, by reason. The counts
// are carried into the run summary so drops are auditable, never silent.
type DropReport struct {
	MalformedRecord int // wrong field count or CSV parse error
	BadTimestamp    int // started_at/ended_at did not parse
	MissingField    int // a mandatory text field was empty
	BadNumeric      int // a coordinate did not parse as a float
	StartAfterEnd   int // started_at was after ended_at
}

// Total returns the number of dropped rows across all reasons.
func (d DropReport) Total() int {
	return d.MalformedRecord + d.BadTimestamp + d.MissingField + d.BadNumeric + d.StartAfterEnd
}

// Table is one cleaned monthly table. Rows keep source-file order; only the
// month-level concatenation order is contractual.
type Table struct {
	Label   string // YYYY-MM
	Rows    []Record
	Dropped DropReport
}

// Source is one monthly input location from the source manifest.
type Source struct {
	Month string `yaml:"month" validate:"required,len=7"`
	URL   string `yaml:"url" validate:"required,url"`
}
