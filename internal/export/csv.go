package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/boukaskasbrahim/citibike-weather-2022/internal/merge"
)

// Columns is the documented output column order. The trailing date/avgTemp
// pair is what the downstream dashboard consumes.
var Columns = []string{
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
	"date",
	"avgTemp",
}

const timestampLayout = "2006-01-02 15:04:05"

// WriteCSV serializes the merged table to path. The file is written to a
// temp file in the destination directory and renamed into place, so an
// aborted run never leaves a partial output behind. Output is byte-identical
// across runs over the same rows.
func WriteCSV(path string, rows []merge.Record) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "creating temp output")
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(Columns); err != nil {
		return errors.Wrap(err, "writing header")
	}

	for _, rec := range rows {
		if err = w.Write(recordFields(rec)); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}

	w.Flush()
	if err = w.Error(); err != nil {
		return errors.Wrap(err, "flushing output")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp output")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "renaming output into place")
	}
	return nil
}

func recordFields(rec merge.Record) []string {
	t := rec.Trip
	temp := ""
	if rec.AvgTempC != nil {
		temp = formatFloat(*rec.AvgTempC)
	}
	return []string{
		t.RideID,
		t.RideableType,
		formatTime(t.StartedAt),
		formatTime(t.EndedAt),
		t.StartStationName,
		t.StartStationID,
		t.EndStationName,
		t.EndStationID,
		formatFloat(t.StartLat),
		formatFloat(t.StartLng),
		formatFloat(t.EndLat),
		formatFloat(t.EndLng),
		t.MemberCasual,
		rec.Date,
		temp,
	}
}

func formatTime(t time.Time) string {
	return t.Format(timestampLayout)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
