package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/boukaskasbrahim/citibike-weather-2022/internal/config"
	"github.com/boukaskasbrahim/citibike-weather-2022/internal/export"
	"github.com/boukaskasbrahim/citibike-weather-2022/internal/merge"
	"github.com/boukaskasbrahim/citibike-weather-2022/internal/trips"
	"github.com/boukaskasbrahim/citibike-weather-2022/internal/weather"
)

// Stage names, in execution order.
const (
	StageFetchTrips   = "fetch-trips"
	StageClean        = "clean"
	StageFetchWeather = "fetch-weather"
	StageMerge        = "merge"
	StageExport       = "export"
)

// StageError wraps a failure with the stage it occurred in. Any stage error
// aborts the run before the exporter touches the output path.
type StageError struct {
	Stage string
	Op    string
	Err   error
}

func (e *StageError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("stage %s: %s: %v", e.Stage, e.Op, e.Err)
	}
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// MonthSummary reports one month's cleaning outcome.
type MonthSummary struct {
	Label   string
	Cleaned int
	Dropped trips.DropReport
}

// Summary is the audit record of a completed run.
type Summary struct {
	Months      []MonthSummary
	TotalRows   int
	WeatherDays int
	Join        merge.JoinReport
	OutputPath  string
	Elapsed     time.Duration
}

// Pipeline runs the acquisition-and-merge steps strictly in sequence: each
// stage completes before the next begins, and a failed stage aborts the run.
type Pipeline struct {
	cfg     *config.AppConfig
	fetcher *trips.Fetcher
	weather *weather.Client
}

func New(cfg *config.AppConfig, fetcher *trips.Fetcher, weatherClient *weather.Client) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		weather: weatherClient,
	}
}

// Run executes fetch-trips, clean, fetch-weather, merge and export, and
// returns the audit summary.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{OutputPath: p.cfg.OutputPath}

	tables := make([]trips.Table, 0, len(p.cfg.Sources))
	for _, src := range p.cfg.Sources {
		if err := ctx.Err(); err != nil {
			return Summary{}, &StageError{Stage: StageFetchTrips, Op: src.Month, Err: err}
		}

		log.Infof("downloading %s", src.Month)
		raw, err := p.fetcher.Download(ctx, src)
		if err != nil {
			return Summary{}, &StageError{Stage: StageFetchTrips, Op: src.Month, Err: err}
		}

		table, err := trips.Clean(src.Month, bytes.NewReader(raw))
		if err != nil {
			return Summary{}, &StageError{Stage: StageClean, Op: src.Month, Err: err}
		}

		if n := table.Dropped.Total(); n > 0 {
			log.Warnf("%s: dropped %d rows (%+v)", src.Month, n, table.Dropped)
		}
		log.Infof("%s: %d rows cleaned", src.Month, len(table.Rows))

		tables = append(tables, table)
		summary.Months = append(summary.Months, MonthSummary{
			Label:   src.Month,
			Cleaned: len(table.Rows),
			Dropped: table.Dropped,
		})
	}

	from, to := p.cfg.WeatherRange()
	log.Infof("fetching daily temperatures for station %s, %s..%s",
		p.cfg.NOAAStation, from.Format("2006-01-02"), to.Format("2006-01-02"))
	series, err := p.weather.DailySeries(ctx, from, to)
	if err != nil {
		return Summary{}, &StageError{Stage: StageFetchWeather, Err: err}
	}
	summary.WeatherDays = series.Len()
	log.Infof("weather table has %d days", series.Len())

	rows := merge.Concat(tables)
	merged, report := merge.LeftJoin(rows, series)
	summary.TotalRows = len(merged)
	summary.Join = report
	if report.Unmatched > 0 {
		log.Warnf("%d trips have no temperature for their start date", report.Unmatched)
	}

	if err := export.WriteCSV(p.cfg.OutputPath, merged); err != nil {
		return Summary{}, &StageError{Stage: StageExport, Err: err}
	}

	summary.Elapsed = time.Since(start)
	return summary, nil
}
