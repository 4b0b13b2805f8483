// Package ai wraps the OpenAI chat-completion API behind a retrying client.
// The retry loop treats every failure as transient; the final error is
// classified into caller-visible kinds only after retries are exhausted.
package ai

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mkarvo/yachtmurder/internal/errors"
	"github.com/sashabaranov/go-openai"
)

// Classified upstream failures. Callers match these with errors.Is to report
// distinct error kinds for bad credentials, rate limiting, and exhausted
// quota.
var (
	ErrUnauthorized   = errors.NewSentinel("upstream rejected API credentials")
	ErrRateLimited    = errors.NewSentinel("upstream rate limit exceeded")
	ErrQuotaExhausted = errors.NewSentinel("upstream quota exhausted")
)

// Config is constructed once at process start and injected into NewClient so
// that tests can run the client against fake configuration. The retry policy
// is constant for the process lifetime.
type Config struct {
	APIKey string
	Model  string
	// MaxRetries is the total number of attempts, including the first one.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// RequestTimeout bounds a single attempt, not the whole retry loop.
	RequestTimeout time.Duration
}

func (cfg Config) withDefaults() Config {
	if cfg.Model == "" {
		cfg.Model = openai.GPT3Dot5Turbo
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return cfg
}

// completionAPI is the slice of the OpenAI client the Client depends on.
// Tests inject a fake; production uses *openai.Client.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	api    completionAPI
	cfg    Config
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	return newClientWithAPI(cfg, openai.NewClient(cfg.APIKey), logger)
}

func newClientWithAPI(cfg Config, api completionAPI, logger *slog.Logger) *Client {
	return &Client{
		api:    api,
		cfg:    cfg.withDefaults(),
		logger: logger.With("source", "ai.Client"),
	}
}

// Complete sends the messages to the upstream service and returns the trimmed
// text of the first completion. Failed attempts are retried with exponential
// backoff up to the configured attempt budget. The backoff sleep and the
// in-flight call are both abandoned promptly when ctx is cancelled.
func (c *Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt - 1)
			c.logger.Debug("waiting before retry",
				slog.Int("attempt", attempt+1), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return "", errors.Wrap(ctx.Err(), "wait for retry")
			case <-time.After(delay):
			}
		}

		reply, err := c.attempt(ctx, messages, temperature)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("completion succeeded after retry", slog.Int("attempt", attempt+1))
			}
			return reply, nil
		}
		lastErr = err
		c.logger.Warn("completion attempt failed",
			slog.Int("attempt", attempt+1), slog.Int("maxRetries", c.cfg.MaxRetries),
			errors.SlogError(err))

		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), "completion cancelled")
		}
	}
	return "", classify(lastErr)
}

// Probe issues a single trivial completion to report upstream reachability.
// It is for operator-facing health checks only and never sits on the
// interrogation path.
func (c *Client) Probe(ctx context.Context) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleUser,
			Content: "Say 'OK' if you can hear me.",
		},
	}
	return c.Complete(ctx, messages, 0)
}

func (c *Client) attempt(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	completion, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", errors.Wrap(err, "create chat completion")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("completion has no choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// backoff doubles the initial delay for each completed attempt and clamps it
// to the configured maximum.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.cfg.InitialBackoff << attempt
	if delay > c.cfg.MaxBackoff || delay <= 0 {
		delay = c.cfg.MaxBackoff
	}
	return delay
}

// classify maps the last upstream failure to a caller-visible error kind. The
// retry loop does not inspect causes; this runs once, at the boundary.
func classify(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return errors.Wrap(err, "generation failed")
	}
	if isQuotaExhausted(apiErr) {
		return errors.Join(ErrQuotaExhausted, err)
	}
	switch apiErr.HTTPStatusCode {
	case http.StatusUnauthorized:
		return errors.Join(ErrUnauthorized, err)
	case http.StatusTooManyRequests:
		return errors.Join(ErrRateLimited, err)
	}
	return errors.Wrap(err, "generation failed")
}

// isQuotaExhausted detects exhausted quota, which OpenAI reports either as
// HTTP 402 or as a 429 with the insufficient_quota code.
func isQuotaExhausted(apiErr *openai.APIError) bool {
	if apiErr.HTTPStatusCode == http.StatusPaymentRequired {
		return true
	}
	code, ok := apiErr.Code.(string)
	return ok && code == "insufficient_quota"
}
