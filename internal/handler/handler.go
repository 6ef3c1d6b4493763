// Package handler adapts a pipeline run into the {statusCode, body} result returned to the
// trigger that invoked it.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Adda-Baaj/prism-news/internal/apperr"
	"github.com/Adda-Baaj/prism-news/internal/ingest"
	"github.com/Adda-Baaj/prism-news/internal/logger"
)

const successMessage = "News ingestion completed"

// Runner executes one ingestion run.
type Runner interface {
	Run(ctx context.Context, cfg ingest.RunConfig) (ingest.Outcome, error)
}

// CredentialFunc returns the feed API key from the calling environment, "" when absent.
type CredentialFunc func() string

// Response is the result object handed back to the trigger.
type Response struct {
	StatusCode int  `json:"statusCode"`
	Body       Body `json:"body"`
}

// Body is either {message, articlesProcessed} or {error}.
type Body struct {
	Message           string `json:"message,omitempty"`
	ArticlesProcessed *int   `json:"articlesProcessed,omitempty"`
	Error             string `json:"error,omitempty"`
}

// Handler turns every run, successful or not, into a well-formed Response.
type Handler struct {
	runner     Runner
	credential CredentialFunc
	log        logger.Logger
}

func New(runner Runner, credential CredentialFunc, log logger.Logger) *Handler {
	if credential == nil {
		credential = func() string { return "" }
	}
	return &Handler{runner: runner, credential: credential, log: logger.Ensure(log)}
}

// Handle runs the pipeline once. It never panics on run failures and never returns an error;
// failures become a 500 response carrying the error message.
func (h *Handler) Handle(ctx context.Context) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			h.log.ErrorObj("ingestion panicked", "ingest_panic", map[string]any{"panic": r})
			resp = failure("internal error during ingestion")
		}
	}()

	out, err := h.runner.Run(ctx, ingest.RunConfig{APIKey: h.credential()})
	if err != nil {
		h.logFailure(out, err)
		return failure(err.Error())
	}

	processed := out.Processed
	return Response{
		StatusCode: http.StatusOK,
		Body: Body{
			Message:           successMessage,
			ArticlesProcessed: &processed,
		},
	}
}

func (h *Handler) logFailure(out ingest.Outcome, err error) {
	fields := map[string]any{
		"kind":      string(apperr.KindOf(err)),
		"error":     err.Error(),
		"state":     string(out.State),
		"fetched":   out.Fetched,
		"processed": out.Processed,
	}
	if out.FailedAt > 0 {
		fields["failed_at"] = out.FailedAt
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.StatusCode != 0 {
			fields["status_code"] = ae.StatusCode
			fields["body"] = snippet(ae.Body)
		}
		if ae.Err != nil {
			fields["cause"] = ae.Err.Error()
		}
	}
	h.log.ErrorObj("news ingestion failed", "ingest_failed", fields)
}

func failure(msg string) Response {
	return Response{
		StatusCode: http.StatusInternalServerError,
		Body:       Body{Error: msg},
	}
}

func snippet(body string) string {
	const maxLen = 512
	if len(body) > maxLen {
		return body[:maxLen] + "..."
	}
	return body
}
