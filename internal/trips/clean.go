package trips

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Timestamp layouts seen in the monthly files. Some months carry fractional
// seconds on a subset of rows.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

var requiredColumns = []string{
	"ride_id",
	"rideable_type",
	"started_at",
	"ended_at",
	"start_station_name",
	"start_station_id",
	"end_station_name",
	"end_station_id",
	"start_lat",
	"start_lng",
	"end_lat",
	"end_lng",
	"member_casual",
}

// Clean parses one raw monthly payload into a uniform Table. Rows that fail
// to parse are dropped and counted per reason; a missing column in the
// header is a structural failure and returns an error instead.
func Clean(label string, r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return Table{}, errors.Wrapf(err, "%s: reading header", label)
	}

	cols, err := columnIndex(header)
	if err != nil {
		return Table{}, errors.Wrapf(err, "%s", label)
	}

	table := Table{Label: label}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Row-level CSV damage; keep going with the next row.
			table.Dropped.MalformedRecord++
			continue
		}
		if len(record) != len(header) {
			table.Dropped.MalformedRecord++
			continue
		}

		row, reason := normalizeRow(record, cols)
		switch reason {
		case dropNone:
			table.Rows = append(table.Rows, row)
		case dropBadTimestamp:
			table.Dropped.BadTimestamp++
		case dropMissingField:
			table.Dropped.MissingField++
		case dropBadNumeric:
			table.Dropped.BadNumeric++
		case dropStartAfterEnd:
			table.Dropped.StartAfterEnd++
		}
	}

	return table, nil
}

type dropReason int

const (
	dropNone dropReason = iota
	dropBadTimestamp
	dropMissingField
	dropBadNumeric
	dropStartAfterEnd
)

// columnIndex maps normalized column names to their positions. Header names
// are lowercased with spaces collapsed to underscores, so cosmetic header
// drift between months does not matter.
func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[normalizeHeader(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, errors.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func normalizeHeader(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return strings.ReplaceAll(name, " ", "_")
}

func normalizeRow(record []string, cols map[string]int) (Record, dropReason) {
	get := func(name string) string {
		return strings.TrimSpace(record[cols[name]])
	}

	startedAt, err := parseTimestamp(get("started_at"))
	if err != nil {
		return Record{}, dropBadTimestamp
	}
	endedAt, err := parseTimestamp(get("ended_at"))
	if err != nil {
		return Record{}, dropBadTimestamp
	}

	row := Record{
		RideID:           get("ride_id"),
		RideableType:     get("rideable_type"),
		StartedAt:        startedAt,
		EndedAt:          endedAt,
		StartStationName: get("start_station_name"),
		StartStationID:   get("start_station_id"),
		EndStationName:   get("end_station_name"),
		EndStationID:     get("end_station_id"),
		MemberCasual:     get("member_casual"),
	}

	for _, v := range []string{
		row.RideID,
		row.StartStationName,
		row.StartStationID,
		row.EndStationName,
		row.EndStationID,
		row.MemberCasual,
	} {
		if v == "" {
			return Record{}, dropMissingField
		}
	}

	coords := []struct {
		name string
		dst  *float64
	}{
		{"start_lat", &row.StartLat},
		{"start_lng", &row.StartLng},
		{"end_lat", &row.EndLat},
		{"end_lng", &row.EndLng},
	}
	for _, c := range coords {
		f, err := strconv.ParseFloat(get(c.name), 64)
		if err != nil {
			return Record{}, dropBadNumeric
		}
		*c.dst = f
	}

	if row.StartedAt.After(row.EndedAt) {
		return Record{}, dropStartAfterEnd
	}

	return row, dropNone
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
