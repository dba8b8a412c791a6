package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/webinar-system/internal/api/middleware"
	"github.com/99minutos/webinar-system/internal/core/domain"
	"github.com/99minutos/webinar-system/internal/core/ports"
)

type stubOrganize struct {
	fn    func(ctx context.Context, in ports.OrganizeWebinarsInput) (*ports.OrganizeWebinarsResult, error)
	calls int
}

func (s *stubOrganize) Execute(ctx context.Context, in ports.OrganizeWebinarsInput) (*ports.OrganizeWebinarsResult, error) {
	s.calls++
	return s.fn(ctx, in)
}

type stubChangeSeats struct {
	fn    func(ctx context.Context, in ports.ChangeSeatsInput) error
	calls int
}

func (s *stubChangeSeats) Execute(ctx context.Context, in ports.ChangeSeatsInput) error {
	s.calls++
	return s.fn(ctx, in)
}

// stubIdempotency claims keys atomically under a mutex, like SETNX.
type stubIdempotency struct {
	mu       sync.Mutex
	stored   map[string]string
	claimErr error
}

const stubPending = "pending"

func (s *stubIdempotency) Claim(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return "", false, s.claimErr
	}
	if s.stored == nil {
		s.stored = map[string]string{}
	}
	id, ok := s.stored[scope+"|"+key]
	if !ok {
		s.stored[scope+"|"+key] = stubPending
		return "", true, nil
	}
	if id == stubPending {
		return "", false, nil
	}
	return id, false, nil
}

func (s *stubIdempotency) Complete(_ context.Context, scope, key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored[scope+"|"+key] = id
	return nil
}

func (s *stubIdempotency) Abandon(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stored[scope+"|"+key] == stubPending {
		delete(s.stored, scope+"|"+key)
	}
	return nil
}

type stubLocker struct {
	busy     bool
	acquired []string
	released int
}

func (s *stubLocker) Acquire(_ context.Context, webinarID string) (func(context.Context) error, error) {
	if s.busy {
		return nil, domain.ErrWebinarBusy
	}
	s.acquired = append(s.acquired, webinarID)
	return func(context.Context) error {
		s.released++
		return nil
	}, nil
}

// newCtx builds an echo context carrying the given caller identity.
func newCtx(method, target, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(middleware.ContextUserID, userID)
	}
	return c, rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

const organizeBody = `{"title":"My first webinar","seats":100,"start_date":"2024-01-10T10:00:00Z","end_date":"2024-01-10T11:00:00Z"}`

func TestWebinarHandler_Organize_Success(t *testing.T) {
	org := &stubOrganize{fn: func(_ context.Context, in ports.OrganizeWebinarsInput) (*ports.OrganizeWebinarsResult, error) {
		if in.UserID != "john-doe" || in.Title != "My first webinar" || in.Seats != 100 {
			t.Fatalf("unexpected input: %+v", in)
		}
		if !in.StartDate.Equal(time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)) {
			t.Fatalf("unexpected start date: %v", in.StartDate)
		}
		return &ports.OrganizeWebinarsResult{ID: "id-1"}, nil
	}}
	h := NewWebinarHandler(org, nil, nil, nil, zerolog.Nop())

	c, rec := newCtx(http.MethodPost, "/v1/webinars", organizeBody, "john-doe")
	if err := h.Organize(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp organizeWebinarResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != "id-1" || resp.Links.Seats != "/v1/webinars/id-1/seats" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWebinarHandler_Organize_SeatsAsString(t *testing.T) {
	var got int
	org := &stubOrganize{fn: func(_ context.Context, in ports.OrganizeWebinarsInput) (*ports.OrganizeWebinarsResult, error) {
		got = in.Seats
		return &ports.OrganizeWebinarsResult{ID: "id-1"}, nil
	}}
	h := NewWebinarHandler(org, nil, nil, nil, zerolog.Nop())

	body := `{"title":"t","seats":"30","start_date":"2024-01-10T10:00:00Z","end_date":"2024-01-10T11:00:00Z"}`
	c, _ := newCtx(http.MethodPost, "/v1/webinars", body, "john-doe")
	if err := h.Organize(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != 30 {
		t.Fatalf("expected 30 seats, got %d", got)
	}
}

func TestWebinarHandler_Organize_SchemaErrors(t *testing.T) {
	cases := map[string]string{
		"malformed json": `{"title":`,
		"missing seats":  `{"title":"t","start_date":"2024-01-10T10:00:00Z","end_date":"2024-01-10T11:00:00Z"}`,
		"seats not int":  `{"title":"t","seats":"many","start_date":"2024-01-10T10:00:00Z","end_date":"2024-01-10T11:00:00Z"}`,
		"missing title":  `{"seats":10,"start_date":"2024-01-10T10:00:00Z","end_date":"2024-01-10T11:00:00Z"}`,
		"missing start":  `{"title":"t","seats":10,"end_date":"2024-01-10T11:00:00Z"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			org := &stubOrganize{fn: func(context.Context, ports.OrganizeWebinarsInput) (*ports.OrganizeWebinarsResult, error) {
				return &ports.OrganizeWebinarsResult{ID: "id-1"}, nil
			}}
			h := NewWebinarHandler(org, nil, nil, nil, zerolog.Nop())

			c, _ := newCtx(http.MethodPost, "/v1/webinars", body, "john-doe")
			err := h.Organize(c)
			if code := httpCode(t, err); code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", code)
			}
			if org.calls != 0 {
				t.Fatalf("service must not be called")
			}
		})
	}
}

func TestWebinarHandler_Organize_NoIdentity(t *testing.T) {
	org := &stubOrganize{}
	h := NewWebinarHandler(org, nil, nil, nil, zerolog.Nop())

	c, _ := newCtx(http.MethodPost, "/v1/webinars", organizeBody, "")
	if code := httpCode(t, h.Organize(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if org.calls != 0 {
		t.Fatalf("service must not be called")
	}
}

func TestWebinarHandler_Organize_PropagatesDomainError(t *testing.T) {
	org := &stubOrganize{fn: func(context.Context, ports.OrganizeWebinarsInput) (*ports.OrganizeWebinarsResult, error) {
		return nil, domain.ErrDatesTooSoon
	}}
	h := NewWebinarHandler(org, nil, nil, nil, zerolog.Nop())

	c, _ := newCtx(http.MethodPost, "/v1/webinars", organizeBody, "john-doe")
	if err := h.Organize(c); !errors.Is(err, domain.ErrDatesTooSoon) {
		t.Fatalf("expected ErrDatesTooSoon, got %v", err)
	}
}

func TestWebinarHandler_Organize_IdempotentReplay(t *testing.T) {
	org := &stubOrganize{fn: func(context.Context, ports.OrganizeWebinarsInput) (*ports.OrganizeWebinarsResult, error) {
		return &ports.OrganizeWebinarsResult{ID: "id-1"}, nil
	}}
	store := &stubIdempotency{}
	h := NewWebinarHandler(org, nil, store, nil, zerolog.Nop())

	first, rec1 := newCtx(http.MethodPost, "/v1/webinars", organizeBody, "john-doe")
	first.Request().Header.Set(HeaderIdempotencyKey, "k-1")
	if err := h.Organize(first); err != nil {
		t.Fatalf("first call: %v", err)
	}

	second, rec2 := newCtx(http.MethodPost, "/v1/webinars", organizeBody, "john-doe")
	second.Request().Header.Set(HeaderIdempotencyKey, "k-1")
	if err := h.Organize(second); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if rec1.Code != http.StatusCreated || rec2.Code != http.StatusOK {
		t.Fatalf("expected 201 then 200, got %d then %d", rec1.Code, rec2.Code)
	}
	if org.calls != 1 {
		t.Fatalf("expected one service call, got %d", org.calls)
	}
	var resp organizeWebinarResponse
	_ = json.Unmarshal(rec2.Body.Bytes(), &resp)
	if resp.ID != "id-1" {
		t.Fatalf("expected replayed id-1, got %q", resp.ID)
	}
}

func TestWebinarHandler_Organize_IdempotencyScopedPerUser(t *testing.T) {
	next := 0
	org := &stubOrganize{fn: func(context.Context, ports.OrganizeWebinarsInput) (*ports.OrganizeWebinarsResult, error) {
		next++
		return &ports.OrganizeWebinarsResult{ID: fmt.Sprintf("id-%d", next)}, nil
	}}
	h := NewWebinarHandler(org, nil, &stubIdempotency{}, nil, zerolog.Nop())

	for _, user := range []string{"alice", "bob"} {
		c, rec := newCtx(http.MethodPost, "/v1/webinars", organizeBody, user)
		c.Request().Header.Set(HeaderIdempotencyKey, "same-key")
		if err := h.Organize(c); err != nil {
			t.Fatalf("%s: %v", user, err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("%s: expected 201, got %d", user, rec.Code)
		}
	}
	if org.calls != 2 {
		t.Fatalf("expected two service calls, got %d", org.calls)
	}
}

func TestWebinarHandler_Organize_ConcurrentSameKey(t *testing.T) {
	entered := make(chan struct{})
	proceed := make(chan struct{})
	org := &stubOrganize{fn: func(context.Context, ports.OrganizeWebinarsInput) (*ports.OrganizeWebinarsResult, error) {
		close(entered)
		<-proceed
		return &ports.OrganizeWebinarsResult{ID: "id-1"}, nil
	}}
	h := NewWebinarHandler(org, nil, &stubIdempotency{}, nil, zerolog.Nop())

	first, rec1 := newCtx(http.MethodPost, "/v1/webinars", organizeBody, "john-doe")
	first.Request().Header.Set(HeaderIdempotencyKey, "k-1")
	done := make(chan error, 1)
	go func() { done <- h.Organize(first) }()
	<-entered

	second, _ := newCtx(http.MethodPost, "/v1/webinars", organizeBody, "john-doe")
	second.Request().Header.Set(HeaderIdempotencyKey, "k-1")
	if code := httpCode(t, h.Organize(second)); code != http.StatusConflict {
		t.Fatalf("expected 409 while the first request runs, got %d", code)
	}

	close(proceed)
	if err := <-done; err != nil {
		t.Fatalf("first call: %v", err)
	}
	if rec1.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec1.Code)
	}

	third, rec3 := newCtx(http.MethodPost, "/v1/webinars", organizeBody, "john-doe")
	third.Request().Header.Set(HeaderIdempotencyKey, "k-1")
	if err := h.Organize(third); err != nil {
		t.Fatalf("third call: %v", err)
	}
	var resp organizeWebinarResponse
	_ = json.Unmarshal(rec3.Body.Bytes(), &resp)
	if rec3.Code != http.StatusOK || resp.ID != "id-1" {
		t.Fatalf("expected replay of id-1, got %d %q", rec3.Code, resp.ID)
	}
	if org.calls != 1 {
		t.Fatalf("expected one service call, got %d", org.calls)
	}
}

func TestWebinarHandler_Organize_RejectionFreesKey(t *testing.T) {
	fail := true
	org := &stubOrganize{fn: func(context.Context, ports.OrganizeWebinarsInput) (*ports.OrganizeWebinarsResult, error) {
		if fail {
			return nil, domain.ErrDatesTooSoon
		}
		return &ports.OrganizeWebinarsResult{ID: "id-1"}, nil
	}}
	h := NewWebinarHandler(org, nil, &stubIdempotency{}, nil, zerolog.Nop())

	first, _ := newCtx(http.MethodPost, "/v1/webinars", organizeBody, "john-doe")
	first.Request().Header.Set(HeaderIdempotencyKey, "k-1")
	if err := h.Organize(first); !errors.Is(err, domain.ErrDatesTooSoon) {
		t.Fatalf("expected ErrDatesTooSoon, got %v", err)
	}

	fail = false
	retry, rec := newCtx(http.MethodPost, "/v1/webinars", organizeBody, "john-doe")
	retry.Request().Header.Set(HeaderIdempotencyKey, "k-1")
	if err := h.Organize(retry); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if rec.Code != http.StatusCreated || org.calls != 2 {
		t.Fatalf("expected a fresh create on retry, got %d after %d calls", rec.Code, org.calls)
	}
}

func TestWebinarHandler_Organize_IdempotencyStoreDown(t *testing.T) {
	org := &stubOrganize{fn: func(context.Context, ports.OrganizeWebinarsInput) (*ports.OrganizeWebinarsResult, error) {
		return &ports.OrganizeWebinarsResult{ID: "id-1"}, nil
	}}
	h := NewWebinarHandler(org, nil, &stubIdempotency{claimErr: errors.New("redis down")}, nil, zerolog.Nop())

	c, rec := newCtx(http.MethodPost, "/v1/webinars", organizeBody, "john-doe")
	c.Request().Header.Set(HeaderIdempotencyKey, "k-1")
	if err := h.Organize(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func seatsCtx(body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := newCtx(http.MethodPost, "/v1/webinars/w1/seats", body, userID)
	c.SetPath("/v1/webinars/:id/seats")
	c.SetParamNames("id")
	c.SetParamValues("w1")
	return c, rec
}

func TestWebinarHandler_ChangeSeats_Success(t *testing.T) {
	cs := &stubChangeSeats{fn: func(_ context.Context, in ports.ChangeSeatsInput) error {
		if in.User.ID != "alice" || in.WebinarID != "w1" || in.Seats != 200 {
			t.Fatalf("unexpected input: %+v", in)
		}
		return nil
	}}
	locker := &stubLocker{}
	h := NewWebinarHandler(nil, cs, nil, locker, zerolog.Nop())

	c, rec := seatsCtx(`{"seats":"200"}`, "alice")
	if err := h.ChangeSeats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp messageResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Message != "Seats updated" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
	if len(locker.acquired) != 1 || locker.acquired[0] != "w1" || locker.released != 1 {
		t.Fatalf("expected lock on w1 acquired and released, got %+v", locker)
	}
}

func TestWebinarHandler_ChangeSeats_ReleasesLockOnError(t *testing.T) {
	cs := &stubChangeSeats{fn: func(context.Context, ports.ChangeSeatsInput) error {
		return domain.ErrNotOrganizer
	}}
	locker := &stubLocker{}
	h := NewWebinarHandler(nil, cs, nil, locker, zerolog.Nop())

	c, _ := seatsCtx(`{"seats":200}`, "bob")
	if err := h.ChangeSeats(c); !errors.Is(err, domain.ErrNotOrganizer) {
		t.Fatalf("expected ErrNotOrganizer, got %v", err)
	}
	if locker.released != 1 {
		t.Fatalf("lock must be released")
	}
}

func TestWebinarHandler_ChangeSeats_Busy(t *testing.T) {
	cs := &stubChangeSeats{}
	h := NewWebinarHandler(nil, cs, nil, &stubLocker{busy: true}, zerolog.Nop())

	c, _ := seatsCtx(`{"seats":200}`, "alice")
	if err := h.ChangeSeats(c); !errors.Is(err, domain.ErrWebinarBusy) {
		t.Fatalf("expected ErrWebinarBusy, got %v", err)
	}
	if cs.calls != 0 {
		t.Fatalf("service must not be called while locked")
	}
}

func TestWebinarHandler_ChangeSeats_MissingSeats(t *testing.T) {
	cs := &stubChangeSeats{}
	h := NewWebinarHandler(nil, cs, nil, nil, zerolog.Nop())

	c, _ := seatsCtx(`{}`, "alice")
	if code := httpCode(t, h.ChangeSeats(c)); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if cs.calls != 0 {
		t.Fatalf("service must not be called")
	}
}
