package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/trackwire/shipment-tracking/internal/api/metrics"
	"github.com/trackwire/shipment-tracking/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Details
// is present only on validation failures and lists every violated rule.
type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Switches on the core error kind, never on message text, to pick the
//     HTTP status (400/404/409/500).
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the consistent JSON envelope {"error": ..., "details": [...]}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.KindValidation:
			metrics.WebhookErrorsTotal.WithLabelValues("validation").Inc()
			return http.StatusBadRequest, errorResponse{Error: "Validation failed", Details: de.Violations}
		case domain.KindNotFound:
			metrics.WebhookErrorsTotal.WithLabelValues("not_found").Inc()
			return http.StatusNotFound, errorResponse{Error: de.Message}
		case domain.KindConflict:
			metrics.WebhookErrorsTotal.WithLabelValues("conflict").Inc()
			return http.StatusConflict, errorResponse{Error: de.Message}
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	metrics.WebhookErrorsTotal.WithLabelValues("internal").Inc()
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "Internal server error"}
}
