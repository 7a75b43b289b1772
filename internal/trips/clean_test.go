package trips

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = "ride_id,rideable_type,started_at,ended_at,start_station_name,start_station_id,end_station_name,end_station_id,start_lat,start_lng,end_lat,end_lng,member_casual"

func validRow(id int) string {
	return fmt.Sprintf(
		"ride%04d,classic_bike,2022-01-15 08:00:00,2022-01-15 08:25:00,W 21 St & 6 Ave,6140.05,1 Ave & E 68 St,6753.08,40.74174,-73.99416,40.76501,-73.95818,member",
		id,
	)
}

func buildCSV(rows ...string) string {
	return testHeader + "\n" + strings.Join(rows, "\n") + "\n"
}

func TestCleanDropsUnparseableTimestamps(t *testing.T) {
	// 100 rows total, 3 with unparseable start timestamps.
	rows := make([]string, 0, 100)
	for i := 0; i < 97; i++ {
		rows = append(rows, validRow(i))
	}
	for i := 0; i < 3; i++ {
		rows = append(rows, fmt.Sprintf(
			"bad%d,classic_bike,not-a-timestamp,2022-01-15 08:25:00,A,1,B,2,40.7,-73.9,40.7,-73.9,member", i))
	}

	table, err := Clean("2022-01", strings.NewReader(buildCSV(rows...)))
	require.NoError(t, err)

	assert.Len(t, table.Rows, 97)
	assert.Equal(t, 3, table.Dropped.BadTimestamp)
	assert.Equal(t, 3, table.Dropped.Total())
}

func TestCleanAcceptsFractionalSeconds(t *testing.T) {
	row := "ride1,classic_bike,2022-03-01 09:00:00.123,2022-03-01 09:10:00.456,A,1,B,2,40.7,-73.9,40.7,-73.9,casual"

	table, err := Clean("2022-03", strings.NewReader(buildCSV(row)))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "2022-03-01", table.Rows[0].DateKey())
}

func TestCleanDropsByReason(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want func(DropReport) int
	}{
		{
			name: "missing start station",
			row:  "ride1,classic_bike,2022-01-15 08:00:00,2022-01-15 08:25:00,,,B,2,40.7,-73.9,40.7,-73.9,member",
			want: func(d DropReport) int { return d.MissingField },
		},
		{
			name: "missing end station",
			row:  "ride1,classic_bike,2022-01-15 08:00:00,2022-01-15 08:25:00,A,1,,,40.7,-73.9,40.7,-73.9,member",
			want: func(d DropReport) int { return d.MissingField },
		},
		{
			name: "unparseable coordinate",
			row:  "ride1,classic_bike,2022-01-15 08:00:00,2022-01-15 08:25:00,A,1,B,2,forty,-73.9,40.7,-73.9,member",
			want: func(d DropReport) int { return d.BadNumeric },
		},
		{
			name: "start after end",
			row:  "ride1,classic_bike,2022-01-15 09:00:00,2022-01-15 08:25:00,A,1,B,2,40.7,-73.9,40.7,-73.9,member",
			want: func(d DropReport) int { return d.StartAfterEnd },
		},
		{
			name: "wrong field count",
			row:  "ride1,classic_bike,2022-01-15 08:00:00",
			want: func(d DropReport) int { return d.MalformedRecord },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			table, err := Clean("2022-01", strings.NewReader(buildCSV(validRow(1), tc.row)))
			require.NoError(t, err)
			assert.Len(t, table.Rows, 1)
			assert.Equal(t, 1, tc.want(table.Dropped))
			assert.Equal(t, 1, table.Dropped.Total())
		})
	}
}

func TestCleanKeepsEqualStartAndEnd(t *testing.T) {
	row := "ride1,classic_bike,2022-01-15 08:00:00,2022-01-15 08:00:00,A,1,B,2,40.7,-73.9,40.7,-73.9,member"

	table, err := Clean("2022-01", strings.NewReader(buildCSV(row)))
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
	assert.Zero(t, table.Dropped.Total())
}

func TestCleanNormalizesHeaderNames(t *testing.T) {
	header := "Ride ID,Rideable Type,Started At,Ended At,Start Station Name,Start Station ID,End Station Name,End Station ID,Start Lat,Start Lng,End Lat,End Lng,Member Casual"
	csv := header + "\n" + validRow(1) + "\n"

	table, err := Clean("2022-01", strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "ride0001", table.Rows[0].RideID)
}

func TestCleanMissingColumnIsFatal(t *testing.T) {
	csv := "ride_id,started_at\nride1,2022-01-15 08:00:00\n"

	_, err := Clean("2022-01", strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestCleanPreservesSourceOrder(t *testing.T) {
	table, err := Clean("2022-01", strings.NewReader(buildCSV(validRow(3), validRow(1), validRow(2))))
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "ride0003", table.Rows[0].RideID)
	assert.Equal(t, "ride0001", table.Rows[1].RideID)
	assert.Equal(t, "ride0002", table.Rows[2].RideID)
}
