package trips

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/boukaskasbrahim/citibike-weather-2022/internal/httpclient"
)

var zipMagic = []byte("PK\x03\x04")

// Fetcher downloads monthly trip archives from the public object store.
type Fetcher struct {
	httpCfg httpclient.Config
	circuit *gobreaker.CircuitBreaker
}

func NewFetcher(client *http.Client) *Fetcher {
	return &Fetcher{
		httpCfg: httpclient.Config{
			Client:  client,
			Backoff: httpclient.DefaultBackoff(),
		},
		circuit: httpclient.NewBreaker("tripdata"),
	}
}

// Download retrieves one monthly source and returns the raw CSV payload.
// Zip archives are unwrapped to their single CSV member; the object store
// publishes months as <month>-citibike-tripdata.csv.zip.
func (f *Fetcher) Download(ctx context.Context, src Source) ([]byte, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, src.URL, nil)
	}

	resp, err := httpclient.Do(ctx, f.httpCfg, f.circuit, buildRequest)
	if err != nil {
		return nil, errors.Wrapf(err, "downloading month %s", src.Month)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading month %s", src.Month)
	}

	if bytes.HasPrefix(data, zipMagic) {
		data, err = extractCSV(data)
		if err != nil {
			return nil, errors.Wrapf(err, "extracting month %s", src.Month)
		}
	}

	return data, nil
}

// extractCSV returns the first CSV member of the archive, skipping the
// __MACOSX metadata entries that ship inside the published archives.
func extractCSV(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	for _, file := range zr.File {
		name := file.Name
		if strings.HasPrefix(name, "__MACOSX/") || strings.HasPrefix(path.Base(name), ".") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(name), ".csv") {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	return nil, errors.New("archive contains no csv member")
}
