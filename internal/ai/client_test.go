package ai

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/mkarvo/yachtmurder/internal/errors"
	"github.com/mkarvo/yachtmurder/internal/testhelpers"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

// fakeAPI scripts upstream behavior per attempt and records every call.
type fakeAPI struct {
	calls     int
	callTimes []time.Time
	requests  []openai.ChatCompletionRequest
	handler   func(ctx context.Context, call int) (openai.ChatCompletionResponse, error)
}

func (f *fakeAPI) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.callTimes = append(f.callTimes, time.Now())
	f.requests = append(f.requests, request)
	return f.handler(ctx, f.calls)
}

func reply(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text}},
		},
	}
}

func testConfig() Config {
	return Config{
		APIKey:         "sk-test",
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
		RequestTimeout: time.Second,
	}
}

func userMessage(content string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: content}}
}

func TestClient_Complete_success(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{handler: func(_ context.Context, _ int) (openai.ChatCompletionResponse, error) {
		return reply("  I was in the galley all night.  \n"), nil
	}}
	client := newClientWithAPI(testConfig(), api, testhelpers.NewLogger(io.Discard))

	got, err := client.Complete(context.Background(), userMessage("Where were you?"), 0.7)

	require.NoError(t, err)
	require.Equal(t, "I was in the galley all night.", got)
	require.Equal(t, 1, api.calls)
	require.Equal(t, openai.GPT3Dot5Turbo, api.requests[0].Model)
	require.InDelta(t, 0.7, api.requests[0].Temperature, 0.001)
}

func TestClient_Complete_retriesTransientFailures(t *testing.T) {
	t.Parallel()
	transientFailures := 2
	api := &fakeAPI{handler: func(_ context.Context, call int) (openai.ChatCompletionResponse, error) {
		if call <= transientFailures {
			return openai.ChatCompletionResponse{}, errors.NewSentinel("connection reset")
		}
		return reply("Fine, I admit I was on deck."), nil
	}}
	cfg := testConfig()
	client := newClientWithAPI(cfg, api, testhelpers.NewLogger(io.Discard))

	got, err := client.Complete(context.Background(), userMessage("q"), 0.7)

	require.NoError(t, err)
	require.Equal(t, "Fine, I admit I was on deck.", got)
	require.Equal(t, transientFailures+1, api.calls)
	// time.After waits at least the requested duration, so every observed gap
	// must cover the configured delay for that attempt.
	require.GreaterOrEqual(t, api.callTimes[1].Sub(api.callTimes[0]), cfg.InitialBackoff)
	require.GreaterOrEqual(t, api.callTimes[2].Sub(api.callTimes[1]), 2*cfg.InitialBackoff)
}

func TestClient_Complete_exhaustsRetries(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{handler: func(_ context.Context, _ int) (openai.ChatCompletionResponse, error) {
		return openai.ChatCompletionResponse{}, errors.NewSentinel("upstream exploded")
	}}
	cfg := testConfig()
	client := newClientWithAPI(cfg, api, testhelpers.NewLogger(io.Discard))

	_, err := client.Complete(context.Background(), userMessage("q"), 0.7)

	require.Error(t, err)
	require.Equal(t, cfg.MaxRetries, api.calls)
	require.Contains(t, err.Error(), "upstream exploded")
	require.NotErrorIs(t, err, ErrUnauthorized)
	require.NotErrorIs(t, err, ErrRateLimited)
	require.NotErrorIs(t, err, ErrQuotaExhausted)
}

func TestClient_Complete_classifiesFinalError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		apiErr *openai.APIError
		want   error
	}{
		{
			name:   "unauthorized",
			apiErr: &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "invalid api key"},
			want:   ErrUnauthorized,
		},
		{
			name:   "rate limited",
			apiErr: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"},
			want:   ErrRateLimited,
		},
		{
			name:   "quota via 402",
			apiErr: &openai.APIError{HTTPStatusCode: http.StatusPaymentRequired, Message: "billing"},
			want:   ErrQuotaExhausted,
		},
		{
			name:   "quota via insufficient_quota code",
			apiErr: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Code: "insufficient_quota", Message: "quota"},
			want:   ErrQuotaExhausted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api := &fakeAPI{handler: func(_ context.Context, _ int) (openai.ChatCompletionResponse, error) {
				return openai.ChatCompletionResponse{}, tt.apiErr
			}}
			cfg := testConfig()
			client := newClientWithAPI(cfg, api, testhelpers.NewLogger(io.Discard))

			_, err := client.Complete(context.Background(), userMessage("q"), 0.7)

			require.ErrorIs(t, err, tt.want)
			// The retry loop stays cause-agnostic: classified failures are
			// retried like any other before the final classification.
			require.Equal(t, cfg.MaxRetries, api.calls)
		})
	}
}

func TestClient_Complete_cancelledDuringBackoff(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{handler: func(_ context.Context, _ int) (openai.ChatCompletionResponse, error) {
		return openai.ChatCompletionResponse{}, errors.NewSentinel("transient")
	}}
	cfg := testConfig()
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour
	client := newClientWithAPI(cfg, api, testhelpers.NewLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.Complete(ctx, userMessage("q"), 0.7)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, api.calls, "no attempt should start after cancellation")
	require.Less(t, time.Since(start), time.Second, "backoff sleep must be abandoned promptly")
}

func TestClient_Complete_attemptTimeout(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{handler: func(ctx context.Context, _ int) (openai.ChatCompletionResponse, error) {
		<-ctx.Done()
		return openai.ChatCompletionResponse{}, ctx.Err()
	}}
	cfg := testConfig()
	cfg.RequestTimeout = 5 * time.Millisecond
	client := newClientWithAPI(cfg, api, testhelpers.NewLogger(io.Discard))

	_, err := client.Complete(context.Background(), userMessage("q"), 0.7)

	require.Error(t, err)
	// A timed-out attempt counts as a failed attempt and is retried.
	require.Equal(t, cfg.MaxRetries, api.calls)
}

func TestClient_Probe(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{handler: func(_ context.Context, _ int) (openai.ChatCompletionResponse, error) {
		return reply("OK"), nil
	}}
	client := newClientWithAPI(testConfig(), api, testhelpers.NewLogger(io.Discard))

	got, err := client.Probe(context.Background())

	require.NoError(t, err)
	require.Equal(t, "OK", got)
	require.Len(t, api.requests, 1)
	require.Len(t, api.requests[0].Messages, 1)
	require.Equal(t, openai.ChatMessageRoleUser, api.requests[0].Messages[0].Role)
	require.Zero(t, api.requests[0].Temperature)
}

func TestClient_backoff(t *testing.T) {
	t.Parallel()
	client := newClientWithAPI(Config{
		APIKey:         "sk-test",
		MaxRetries:     5,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		RequestTimeout: time.Second,
	}, &fakeAPI{}, testhelpers.NewLogger(io.Discard))

	var previous time.Duration
	for attempt := range 8 {
		delay := client.backoff(attempt)
		require.GreaterOrEqual(t, delay, previous, "delays must be non-decreasing")
		require.LessOrEqual(t, delay, 10*time.Second, "delays must respect the clamp")
		previous = delay
	}
	require.Equal(t, time.Second, client.backoff(0))
	require.Equal(t, 2*time.Second, client.backoff(1))
	require.Equal(t, 10*time.Second, client.backoff(5))
}
