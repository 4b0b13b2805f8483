package main

import (
	"net/http"
	"time"
)

type retryConfigResponse struct {
	MaxRetries       int   `json:"max_retries"`
	InitialBackoffMS int64 `json:"initial_backoff_ms"`
	MaxBackoffMS     int64 `json:"max_backoff_ms"`
	RequestTimeoutMS int64 `json:"request_timeout_ms"`
}

type healthResponse struct {
	Status             string              `json:"status"`
	Timestamp          string              `json:"timestamp"`
	UpstreamConfigured bool                `json:"upstream_configured"`
	RetryConfig        retryConfigResponse `json:"retry_config"`
	UpstreamTest       string              `json:"upstream_test,omitempty"`
	UpstreamReply      string              `json:"upstream_reply,omitempty"`
	UpstreamError      string              `json:"upstream_error,omitempty"`
}

// health reports service liveness and the effective upstream retry settings.
// With ?test_upstream=true it additionally fires a single probe completion,
// which costs tokens and so is opt-in.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:             "ok",
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
		UpstreamConfigured: app.aiConfig.APIKey != "",
		RetryConfig: retryConfigResponse{
			MaxRetries:       app.aiConfig.MaxRetries,
			InitialBackoffMS: app.aiConfig.InitialBackoff.Milliseconds(),
			MaxBackoffMS:     app.aiConfig.MaxBackoff.Milliseconds(),
			RequestTimeoutMS: app.aiConfig.RequestTimeout.Milliseconds(),
		},
	}

	if r.URL.Query().Get("test_upstream") == "true" {
		reply, err := app.aiClient.Probe(r.Context())
		if err != nil {
			resp.UpstreamTest = "failed"
			resp.UpstreamError = err.Error()
		} else {
			resp.UpstreamTest = "ok"
			resp.UpstreamReply = reply
		}
	}

	app.writeJSON(w, r, http.StatusOK, resp)
}
