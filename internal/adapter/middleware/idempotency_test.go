package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	reqID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	empID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newTestApp(t *testing.T, ttl time.Duration, handler echo.HandlerFunc) (*echo.Echo, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	e.HideBanner = true
	e.Use(Idempotency(rdb, ttl))
	e.POST("/expenses", handler)
	e.GET("/expenses", handler)
	return e, rdb
}

func send(t *testing.T, e *echo.Echo, method, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/expenses", nil)
	} else {
		req = httptest.NewRequest(method, "/expenses", bytes.NewReader([]byte(body)))
	}
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func validHeaders() map[string]string {
	return map[string]string{
		"Ax-Request-Id":  reqID,
		"Ax-Request-At":  time.Now().UTC().Format(time.RFC3339),
		"Ax-Employee-Id": empID,
	}
}

func created(c echo.Context) error {
	return c.JSON(http.StatusCreated, map[string]any{"ok": true})
}

func TestIdempotency_BypassesReads(t *testing.T) {
	e, _ := newTestApp(t, time.Minute, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	// no Ax-* headers at all
	rec := send(t, e, http.MethodGet, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET must bypass the middleware, got %d", rec.Code)
	}
}

func TestIdempotency_HeaderValidation(t *testing.T) {
	e, _ := newTestApp(t, time.Minute, created)

	cases := []struct {
		name   string
		mutate func(h map[string]string)
	}{
		{"missing request id", func(h map[string]string) { delete(h, "Ax-Request-Id") }},
		{"malformed request id", func(h map[string]string) { h["Ax-Request-Id"] = "NOT-VALID" }},
		{"missing request at", func(h map[string]string) { delete(h, "Ax-Request-At") }},
		{"unparseable request at", func(h map[string]string) { h["Ax-Request-At"] = "not-a-time" }},
		{"request at in the past", func(h map[string]string) {
			h["Ax-Request-At"] = time.Now().UTC().Add(-maxClockSkew - time.Minute).Format(time.RFC3339)
		}},
		{"request at in the future", func(h map[string]string) {
			h["Ax-Request-At"] = time.Now().UTC().Add(maxClockSkew + time.Minute).Format(time.RFC3339)
		}},
		{"missing employee id", func(h map[string]string) { delete(h, "Ax-Employee-Id") }},
		{"malformed employee id", func(h map[string]string) { h["Ax-Employee-Id"] = "not32hex" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := validHeaders()
			tc.mutate(h)
			rec := send(t, e, http.MethodPost, `{"x":1}`, h)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d: %s", rec.Code, rec.Body)
			}
		})
	}
}

func TestIdempotency_ReplaysFinishedResponse(t *testing.T) {
	calls := 0
	e, _ := newTestApp(t, 2*time.Minute, func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusCreated, map[string]any{"ok": true, "call": calls})
	})

	h := validHeaders()
	body := `{"amount":125.50}`

	first := send(t, e, http.MethodPost, body, h)
	if first.Code != http.StatusCreated {
		t.Fatalf("first attempt: want 201, got %d: %s", first.Code, first.Body)
	}

	// identical retry must not reach the handler again
	second := send(t, e, http.MethodPost, body, h)
	if second.Code != http.StatusCreated {
		t.Fatalf("replay: want 201, got %d: %s", second.Code, second.Body)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay body differs: %q vs %q", first.Body, second.Body)
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
}

func TestIdempotency_ConflictWhileInProgress(t *testing.T) {
	e, rdb := newTestApp(t, 2*time.Minute, created)
	st := store{rdb: rdb}

	body := `{"x":1}`
	key := idempotencyKey(http.MethodPost, "/expenses", empID, reqID)
	ok, err := st.lock(context.Background(), key, record{
		Pending:   true,
		BodyHash:  hashBody([]byte(body)),
		RequestID: reqID,
		RequestAt: time.Now().UnixMilli(),
		StoredAt:  time.Now().UTC(),
	})
	if err != nil || !ok {
		t.Fatalf("seed lock: ok=%v err=%v", ok, err)
	}

	rec := send(t, e, http.MethodPost, body, validHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress retry: want 409, got %d: %s", rec.Code, rec.Body)
	}
}

func TestIdempotency_ConflictOnBodyMismatch(t *testing.T) {
	e, rdb := newTestApp(t, 2*time.Minute, created)
	st := store{rdb: rdb}

	key := idempotencyKey(http.MethodPost, "/expenses", empID, reqID)
	err := st.finish(context.Background(), key, record{
		Status:    http.StatusCreated,
		Payload:   []byte(`{"ok":true}`),
		BodyHash:  hashBody([]byte(`{"x":1}`)),
		RequestID: reqID,
		RequestAt: time.Now().UnixMilli(),
		StoredAt:  time.Now().UTC(),
	}, 5*time.Minute)
	if err != nil {
		t.Fatalf("seed finished record: %v", err)
	}

	// same request id, different payload
	rec := send(t, e, http.MethodPost, `{"x":2}`, validHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("body mismatch: want 409, got %d", rec.Code)
	}
}

func TestIdempotency_StoreDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	e := echo.New()
	e.Use(Idempotency(rdb, time.Minute))
	e.POST("/expenses", created)

	rec := send(t, e, http.MethodPost, `{}`, validHeaders())
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("store down: want 503, got %d", rec.Code)
	}
}
