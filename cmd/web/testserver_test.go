package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkarvo/yachtmurder/internal/errors"
	"github.com/mkarvo/yachtmurder/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func waitForReady(ctx context.Context, endpoint string) error {
	timeout := 1 * time.Second
	client := http.Client{}
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			endpoint,
			nil,
		); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if err = resp.Body.Close(); err != nil {
					return errors.Wrap(err, "close response body")
				}
				return nil
			}
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(250 * time.Millisecond)
		}
	}
}

// writeTestContent builds a minimal content store on disk.
func writeTestContent(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		filepath.Join("prompts", "interrogation_prompt.txt"): "You are {name} ({tone}). Backstory: {backstory}. " +
			"You claim you were at {location} during {time_range}. Relationship: {relationship_to_victim}. Question: {question}",
		filepath.Join("suspects", "zane.json"): `{
			"backstory": "Deckhand with gambling debts",
			"timeline": {"time_range": "22:00-23:00", "location": "engine room", "claimed_location": "galley"},
			"relationship_to_victim": "owed him money",
			"tone": "defensive"
		}`,
		filepath.Join("clues", "day1", "zane.json"): `{"clue": "A pawn shop receipt in Zane's locker"}`,
		filepath.Join("clues", "day2", "zane.txt"):  "Mud on Zane's boots matches the aft deck\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

// testLookupEnv points the server at throwaway resources: a dynamically
// allocated port, an in-memory database, and a temporary content store.
func testLookupEnv(dataDir string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		switch key {
		case "YACHTMURDER_ADDR":
			return "localhost:0", true
		case "YACHTMURDER_SQLITE_URL":
			return ":memory:", true
		case "YACHTMURDER_DATA_DIR":
			return dataDir, true
		case "OPENAI_API_KEY":
			return "sk-test", true
		case "YACHTMURDER_MAX_RETRIES":
			return "1", true
		case "YACHTMURDER_INITIAL_BACKOFF":
			return "1ms", true
		case "YACHTMURDER_MAX_BACKOFF":
			return "2ms", true
		case "YACHTMURDER_REQUEST_TIMEOUT":
			return "250ms", true
		default:
			return "", false
		}
	}
}

type testServer struct {
	url    string
	client http.Client
}

// startTestServer starts the test server, waits for it to be ready, and returns the server URL for testing.
func startTestServer(t *testing.T, w io.Writer) testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// We need to grab the dynamically allocated port from the log output.
	addrCh := make(chan string, 1)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "Addr" {
				addrCh <- a.Value.String()
			}
			return a
		},
	})))

	lookupEnv := testLookupEnv(writeTestContent(t))

	// Start the server and wait for it to be ready.
	go func() {
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel()
			assert.NoError(t, err)
		}
	}()
	select {
	case <-ctx.Done():
		t.Fatal("server failed to start")
		return testServer{} //nolint:exhaustruct // This is unreachable.
	case addr := <-addrCh:
		serverURL := fmt.Sprintf("http://%s", addr)
		if err := waitForReady(ctx, fmt.Sprintf("%s/api/health", serverURL)); err != nil {
			require.NoError(t, err)
		}
		jar, err := cookiejar.New(nil)
		require.NoError(t, err)
		return testServer{
			url:    serverURL,
			client: http.Client{Jar: jar},
		}
	}
}

// Get fetches a URL and returns the response.
func (s *testServer) Get(t *testing.T, urlPath string) *http.Response {
	t.Helper()
	resp, err := s.client.Get(s.url + urlPath)
	require.NoError(t, err)
	return resp
}

// Post sends a JSON body to a URL and returns the response.
func (s *testServer) Post(t *testing.T, urlPath string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.url+urlPath, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	return resp
}
