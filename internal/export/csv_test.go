package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boukaskasbrahim/citibike-weather-2022/internal/merge"
	"github.com/boukaskasbrahim/citibike-weather-2022/internal/trips"
)

func sampleRows() []merge.Record {
	start := time.Date(2022, time.January, 1, 8, 0, 0, 0, time.UTC)
	temp := 11.5
	return []merge.Record{
		{
			Trip: trips.Record{
				RideID:           "rideA",
				RideableType:     "classic_bike",
				StartedAt:        start,
				EndedAt:          start.Add(25 * time.Minute),
				StartStationName: "W 21 St & 6 Ave",
				StartStationID:   "6140.05",
				EndStationName:   "1 Ave & E 68 St",
				EndStationID:     "6753.08",
				StartLat:         40.74174,
				StartLng:         -73.99416,
				EndLat:           40.76501,
				EndLng:           -73.95818,
				MemberCasual:     "member",
			},
			Date:     "2022-01-01",
			AvgTempC: &temp,
		},
		{
			Trip: trips.Record{
				RideID:           "rideB",
				RideableType:     "electric_bike",
				StartedAt:        start.Add(time.Hour),
				EndedAt:          start.Add(90 * time.Minute),
				StartStationName: "A",
				StartStationID:   "1",
				EndStationName:   "B",
				EndStationID:     "2",
				StartLat:         40.7,
				StartLng:         -73.9,
				EndLat:           40.71,
				EndLng:           -73.91,
				MemberCasual:     "casual",
			},
			Date: "2022-01-01",
			// No observation for this date: explicit null, not a drop.
		},
	}
}

func TestWriteCSVColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(path, sampleRows()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Equal(t,
		"rideA,classic_bike,2022-01-01 08:00:00,2022-01-01 08:25:00,W 21 St & 6 Ave,6140.05,1 Ave & E 68 St,6753.08,40.74174,-73.99416,40.76501,-73.95818,member,2022-01-01,11.5",
		lines[1])
}

func TestWriteCSVNullTemperatureIsEmptyField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(path, sampleRows()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.True(t, strings.HasSuffix(lines[2], ",2022-01-01,"), "missing temperature must serialize as an empty trailing field: %q", lines[2])
}

func TestWriteCSVIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")

	rows := sampleRows()
	require.NoError(t, WriteCSV(first, rows))
	require.NoError(t, WriteCSV(second, rows))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b, "re-running the export over identical rows must be byte-identical")
}

func TestWriteCSVLeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, WriteCSV(path, sampleRows()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.csv", entries[0].Name())
}

func TestWriteCSVFailsWithoutPartialOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	path := filepath.Join(dir, "out.csv")

	err := WriteCSV(path, sampleRows())
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
