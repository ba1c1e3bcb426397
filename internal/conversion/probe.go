package conversion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/hearlearn/internal/domain"
)

const probeTimeout = 10 * time.Second

// Probe checks that the conversion service answers at serverURL.
// Any HTTP response counts; only transport failures are reported.
func Probe(ctx context.Context, serverURL string) error {
	serverURL = strings.TrimRight(serverURL, "/")

	client := &http.Client{
		Timeout: probeTimeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrServerOffline, err)
	}
	resp.Body.Close()
	return nil
}
