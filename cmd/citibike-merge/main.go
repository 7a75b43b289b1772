package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/boukaskasbrahim/citibike-weather-2022/internal/config"
	"github.com/boukaskasbrahim/citibike-weather-2022/internal/logging"
	"github.com/boukaskasbrahim/citibike-weather-2022/internal/pipeline"
	"github.com/boukaskasbrahim/citibike-weather-2022/internal/trips"
	"github.com/boukaskasbrahim/citibike-weather-2022/internal/weather"
)

func main() {
	if err := logging.Init(os.Getenv("LOG_LEVEL")); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	fetcher := trips.NewFetcher(httpClient)
	weatherClient := weather.NewClient(httpClient, cfg.NOAABaseURL, cfg.NOAAToken, cfg.NOAAStation)

	p := pipeline.New(cfg, fetcher, weatherClient)

	// An interrupted run is simply restarted from the beginning; the signal
	// context just stops outbound fetches promptly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := p.Run(ctx)
	if err != nil {
		log.Fatalf("pipeline aborted: %v", err)
	}

	for _, m := range summary.Months {
		log.Infof("%s: %d cleaned, %d dropped", m.Label, m.Cleaned, m.Dropped.Total())
	}
	log.Infof("merged %d trips against %d weather days (%d matched, %d without temperature)",
		summary.TotalRows, summary.WeatherDays, summary.Join.Matched, summary.Join.Unmatched)
	log.Infof("wrote %s in %s", summary.OutputPath, summary.Elapsed.Round(time.Millisecond))
}
