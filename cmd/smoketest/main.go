package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mkarvo/yachtmurder/internal/errors"
	"github.com/mkarvo/yachtmurder/internal/logging"
)

// testHealth verifies the deployment is up and knows its upstream settings.
func testHealth(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request health")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected health status", slog.Int("status", resp.StatusCode))
	}

	var health struct {
		Status             string `json:"status"`
		UpstreamConfigured bool   `json:"upstream_configured"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return errors.Wrap(err, "decode health response")
	}
	if health.Status != "ok" {
		return errors.New("service not healthy", slog.String("status", health.Status))
	}
	if !health.UpstreamConfigured {
		return errors.New("upstream API key not configured")
	}
	return nil
}

// testClue exercises the content store through the clue endpoint. The
// response body doesn't matter as long as the lookup succeeds.
func testClue(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/clue?day=1&suspect=zane", nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request clue")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected clue status", slog.Int("status", resp.StatusCode))
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	if err := testHealth(ctx, url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing health", errors.SlogError(err))
		os.Exit(1)
	}
	if err := testClue(ctx, url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing clue lookup", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
