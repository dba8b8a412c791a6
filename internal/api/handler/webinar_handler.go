package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/webinar-system/internal/api/metrics"
	"github.com/99minutos/webinar-system/internal/core/domain"
	"github.com/99minutos/webinar-system/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry POST /v1/webinars safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// IdempotencyStore remembers which webinar id answered a given key.
// Claim reserves a key atomically. If the key is taken, claimed is false and
// id holds the stored webinar id, or is empty while the first request runs.
type IdempotencyStore interface {
	Claim(ctx context.Context, scope, key string) (id string, claimed bool, err error)
	Complete(ctx context.Context, scope, key, id string) error
	Abandon(ctx context.Context, scope, key string) error
}

// SeatLocker serialises seat changes on one webinar. Acquire returns
// domain.ErrWebinarBusy when another request holds the lock.
type SeatLocker interface {
	Acquire(ctx context.Context, webinarID string) (func(context.Context) error, error)
}

// WebinarHandler handles HTTP requests for webinar commands.
// idempotency and locker are optional; nil disables the feature.
type WebinarHandler struct {
	organize    ports.OrganizeWebinars
	changeSeats ports.ChangeSeats
	idempotency IdempotencyStore
	locker      SeatLocker
	log         zerolog.Logger
}

func NewWebinarHandler(
	organize ports.OrganizeWebinars,
	changeSeats ports.ChangeSeats,
	idempotency IdempotencyStore,
	locker SeatLocker,
	log zerolog.Logger,
) *WebinarHandler {
	return &WebinarHandler{
		organize:    organize,
		changeSeats: changeSeats,
		idempotency: idempotency,
		locker:      locker,
		log:         log,
	}
}

// Organize handles POST /v1/webinars.
//
// @Summary      Organize a webinar
// @Tags         webinars
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-User-ID        header    string                  false  "Caller id when no JWT secret is configured"
// @Param        Idempotency-Key  header    string                  false  "Replay protection key"
// @Param        body             body      organizeWebinarRequest  true   "Webinar"
// @Success      201              {object}  organizeWebinarResponse
// @Success      200              {object}  organizeWebinarResponse  "Replayed Idempotency-Key"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      409              {object}  errorResponse  "Idempotency-Key in progress"
// @Failure      422              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /v1/webinars [post]
func (h *WebinarHandler) Organize(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req organizeWebinarRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if !req.Seats.Set {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "seats is required")
	}

	ctx := c.Request().Context()
	key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
	scope := "organize:" + user.ID

	claimed := false
	if key != "" && h.idempotency != nil {
		id, ok, err := h.idempotency.Claim(ctx, scope, key)
		switch {
		case err != nil:
			h.log.Warn().Err(err).Str("key", key).Msg("idempotency claim failed")
		case ok:
			claimed = true
		case id != "":
			metrics.IdempotentReplaysTotal.Inc()
			return c.JSON(http.StatusOK, organizeWebinarResponse{ID: id, Links: linksFor(id)})
		default:
			return echo.NewHTTPError(http.StatusConflict, "a request with this Idempotency-Key is still in progress")
		}
	}

	res, err := h.organize.Execute(ctx, ports.OrganizeWebinarsInput{
		UserID:    user.ID,
		Title:     req.Title,
		Seats:     req.Seats.Value,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		if claimed {
			if aerr := h.idempotency.Abandon(context.WithoutCancel(ctx), scope, key); aerr != nil {
				h.log.Warn().Err(aerr).Str("key", key).Msg("idempotency abandon failed")
			}
		}
		countRejection(metrics.OpOrganize, err)
		return err
	}
	metrics.WebinarsOrganizedTotal.Inc()

	if claimed {
		if err := h.idempotency.Complete(context.WithoutCancel(ctx), scope, key, res.ID); err != nil {
			h.log.Warn().Err(err).Str("key", key).Str("webinar_id", res.ID).Msg("idempotency complete failed")
		}
	}

	return c.JSON(http.StatusCreated, organizeWebinarResponse{ID: res.ID, Links: linksFor(res.ID)})
}

// ChangeSeats handles POST /v1/webinars/:id/seats.
//
// @Summary      Change the seat capacity of a webinar
// @Tags         webinars
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-User-ID  header    string              false  "Caller id when no JWT secret is configured"
// @Param        id         path      string              true   "Webinar id"
// @Param        body       body      changeSeatsRequest  true   "New seat count"
// @Success      200        {object}  messageResponse
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Failure      409        {object}  errorResponse
// @Failure      422        {object}  errorResponse
// @Failure      500        {object}  errorResponse
// @Router       /v1/webinars/{id}/seats [post]
func (h *WebinarHandler) ChangeSeats(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req changeSeatsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	if !req.Seats.Set {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "seats is required")
	}

	ctx := c.Request().Context()
	webinarID := c.Param("id")

	if h.locker != nil {
		release, err := h.locker.Acquire(ctx, webinarID)
		if err != nil {
			return err
		}
		defer func() {
			// The request context may already be cancelled.
			if err := release(context.WithoutCancel(ctx)); err != nil {
				h.log.Warn().Err(err).Str("webinar_id", webinarID).Msg("release seat lock")
			}
		}()
	}

	err = h.changeSeats.Execute(ctx, ports.ChangeSeatsInput{
		User:      user,
		WebinarID: webinarID,
		Seats:     req.Seats.Value,
	})
	if err != nil {
		countRejection(metrics.OpChangeSeats, err)
		return err
	}
	metrics.SeatChangesTotal.Inc()

	return c.JSON(http.StatusOK, messageResponse{Message: "Seats updated"})
}

func countRejection(op string, err error) {
	if kind := domain.KindOf(err); kind != domain.KindUnknown {
		metrics.RejectionsTotal.WithLabelValues(op, kind.String()).Inc()
	}
}
