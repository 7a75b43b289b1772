package merge

import (
	"sort"

	"github.com/boukaskasbrahim/citibike-weather-2022/internal/trips"
	"github.com/boukaskasbrahim/citibike-weather-2022/internal/weather"
)

// Record is one trip annotated with the weather observation for its start
// date. AvgTempC is nil when the weather table has no entry for the date;
// join misses never drop rows.
type Record struct {
	Trip     trips.Record
	Date     string
	AvgTempC *float64
}

// JoinReport counts join outcomes for auditing.
type JoinReport struct {
	Matched   int
	Unmatched int
}

// Concat flattens the cleaned monthly tables into a single row set, ordered
// chronologically by month label. Row order within a month is preserved.
func Concat(tables []trips.Table) []trips.Record {
	ordered := make([]trips.Table, len(tables))
	copy(ordered, tables)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Label < ordered[j].Label
	})

	total := 0
	for _, t := range ordered {
		total += len(t.Rows)
	}

	rows := make([]trips.Record, 0, total)
	for _, t := range ordered {
		rows = append(rows, t.Rows...)
	}
	return rows
}

// LeftJoin annotates every trip with the temperature observed on its start
// date. Every input row appears in the output exactly once.
func LeftJoin(rows []trips.Record, series *weather.Series) ([]Record, JoinReport) {
	var report JoinReport
	merged := make([]Record, 0, len(rows))

	for _, trip := range rows {
		rec := Record{Trip: trip, Date: trip.DateKey()}
		if temp, ok := series.Lookup(rec.Date); ok {
			t := temp
			rec.AvgTempC = &t
			report.Matched++
		} else {
			report.Unmatched++
		}
		merged = append(merged, rec)
	}

	return merged, report
}
