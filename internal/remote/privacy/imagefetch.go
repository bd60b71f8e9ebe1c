package privacy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// gifURLEnvVar is the one environment override this subsystem reads
// directly with os.LookupEnv, rather than through the viper-backed
// internal/config.Config: it is a one-off operator toggle, not persisted
// agent configuration.
const gifURLEnvVar = "CLOUDYDESK_PRIVACY_GIF_URL"

// defaultGIFURL is used when the operator has not set gifURLEnvVar.
const defaultGIFURL = "https://static.cloudydesk.example/privacy/default-overlay.gif"

const fetchTimeout = 10 * time.Second

func gifURL() string {
	if v, ok := os.LookupEnv(gifURLEnvVar); ok && v != "" {
		return v
	}
	return defaultGIFURL
}

// fetchImage downloads the animated overlay image, the same synchronous
// http.Client-with-timeout shape internal/httputil and internal/updater use
// for agent→server calls.
func fetchImage(ctx context.Context) ([]byte, error) {
	url := gifURL()
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("privacy: build image request: %w", err)
	}

	client := &http.Client{Timeout: fetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("privacy: fetch overlay image from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("privacy: fetch overlay image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("privacy: read overlay image body: %w", err)
	}
	return data, nil
}
