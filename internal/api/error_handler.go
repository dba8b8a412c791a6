package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/webinar-system/internal/core/domain"
	"github.com/99minutos/webinar-system/internal/infrastructure/queue"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps business rejections to deterministic HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "kind": "<kind>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	if kind := domain.KindOf(err); kind != domain.KindUnknown {
		return statusForKind(kind), errorResponse{Error: rootMessage(err), Kind: kind.String()}
	}

	switch {
	case errors.Is(err, domain.ErrWebinarBusy):
		return http.StatusConflict, errorResponse{Error: "webinar is being modified, retry later"}
	case errors.Is(err, domain.ErrWebinarExists):
		return http.StatusConflict, errorResponse{Error: "webinar already exists"}
	case errors.Is(err, queue.ErrStopped):
		return http.StatusServiceUnavailable, errorResponse{Error: "service is shutting down"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindWebinarNotFound:
		return http.StatusNotFound
	case domain.KindNotOrganizer:
		return http.StatusForbidden
	case domain.KindDatesTooSoon, domain.KindTooManySeats, domain.KindNotEnoughSeats, domain.KindReduceSeats:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// rootMessage drops the "<op>: " prefixes added while the error travelled up.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
