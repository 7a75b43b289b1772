package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/boukaskasbrahim/citibike-weather-2022/internal/httpclient"
)

// DefaultBaseURL is NOAA's Climate Data Online v2 data endpoint.
const DefaultBaseURL = "https://www.ncei.noaa.gov/cdo-web/api/v2/data"

const (
	datasetID = "GHCND"
	dataType  = "TAVG" // daily average temperature
	pageLimit = 1000
)

var (
	// ErrMissingToken is returned when the client has no API token configured.
	ErrMissingToken = errors.New("noaa api token is not configured")
	// ErrUnauthorized is returned when NOAA rejects the supplied token.
	ErrUnauthorized = errors.New("noaa api rejected the token")
	// ErrEmptySeries is returned when the API answers successfully but with
	// no observations; an empty series must never pass as a good fetch.
	ErrEmptySeries = errors.New("noaa api returned no observations")
)

// Client fetches a daily average-temperature series from NOAA CDO v2 for a
// single weather station.
type Client struct {
	baseURL string
	token   string
	station string // e.g. GHCND:USW00014732 (LaGuardia Airport)
	httpCfg httpclient.Config
	circuit *gobreaker.CircuitBreaker
}

func NewClient(client *http.Client, baseURL, token, station string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		station: station,
		httpCfg: httpclient.Config{
			Client:  client,
			Backoff: httpclient.DefaultBackoff(),
		},
		circuit: httpclient.NewBreaker("noaa"),
	}
}

// DailySeries fetches the TAVG series for [from, to] inclusive. GHCND
// publishes TAVG in tenths of °C; values are converted to °C here so
// everything downstream works in the native unit.
func (c *Client) DailySeries(ctx context.Context, from, to time.Time) (*Series, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}

	series := NewSeries()
	offset := 1

	for {
		payload, err := c.fetchPage(ctx, from, to, offset)
		if err != nil {
			return nil, err
		}

		for _, result := range payload.Results {
			if result.Datatype != dataType {
				continue
			}
			date, err := parseObservationDate(result.Date)
			if err != nil {
				return nil, errors.Wrap(err, "decoding observation date")
			}
			if err := series.Add(Observation{Date: date, TempC: result.Value / 10}); err != nil {
				return nil, err
			}
		}

		seen := offset - 1 + len(payload.Results)
		if len(payload.Results) == 0 || seen >= payload.Metadata.Resultset.Count {
			break
		}
		offset = seen + 1
	}

	if series.Len() == 0 {
		return nil, ErrEmptySeries
	}

	return series, nil
}

type dataPage struct {
	Metadata struct {
		Resultset struct {
			Offset int `json:"offset"`
			Count  int `json:"count"`
			Limit  int `json:"limit"`
		} `json:"resultset"`
	} `json:"metadata"`
	Results []struct {
		Date     string  `json:"date"`
		Datatype string  `json:"datatype"`
		Station  string  `json:"station"`
		Value    float64 `json:"value"`
	} `json:"results"`
}

func (c *Client) fetchPage(ctx context.Context, from, to time.Time, offset int) (*dataPage, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("datasetid", datasetID)
		values.Set("datatypeid", dataType)
		values.Set("stationid", c.station)
		values.Set("startdate", from.Format("2006-01-02"))
		values.Set("enddate", to.Format("2006-01-02"))
		values.Set("limit", strconv.Itoa(pageLimit))
		values.Set("offset", strconv.Itoa(offset))

		req, err := http.NewRequest(http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("token", c.token)
		return req, nil
	}

	resp, err := httpclient.Do(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		if errors.Is(err, httpclient.ErrUnauthorized) {
			return nil, errors.Wrap(ErrUnauthorized, err.Error())
		}
		return nil, errors.Wrap(err, "fetching noaa data")
	}
	defer resp.Body.Close()

	var payload dataPage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decoding noaa response")
	}
	return &payload, nil
}

// parseObservationDate turns NOAA's timestamp form (2022-01-01T00:00:00)
// into the canonical date key.
func parseObservationDate(s string) (string, error) {
	if len(s) < 10 {
		return "", errors.Errorf("malformed date %q", s)
	}
	day := s[:10]
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return "", errors.Wrapf(err, "malformed date %q", s)
	}
	return day, nil
}
