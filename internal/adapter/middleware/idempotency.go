package middleware

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	// lockTTL bounds how long a crashed handler can hold a request id
	// hostage before a retry is allowed through again.
	lockTTL = 60 * time.Second
	// maxClockSkew is the tolerated drift on Ax-Request-At (UTC).
	maxClockSkew = 10 * time.Minute
)

// captureWriter tees the response so the final status and body can be
// stored for replay.
type captureWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Idempotency makes mutating endpoints retry-safe. The caller sends
// Ax-Request-Id (uuid or hex32) and Ax-Request-At (epoch s/ms, or RFC3339
// with an explicit timezone); the first attempt takes a provisional lock
// keyed on method + route + employee + request id, and a retry of a finished
// request replays the stored response instead of re-running the transition.
// Reusing a request id with a different body is a conflict.
func Idempotency(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	st := store{rdb: rdb}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.TrimSpace(req.Header.Get("Ax-Request-Id"))
			if reqID == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing Ax-Request-Id"})
			}
			if !isRequestID(reqID) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid Ax-Request-Id format"})
			}

			reqAt, err := parseRequestAt(req.Header.Get("Ax-Request-At"))
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			now := time.Now().UTC()
			if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Ax-Request-At too skewed"})
			}

			employeeID := strings.TrimSpace(req.Header.Get("Ax-Employee-Id"))
			if employeeID == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing Ax-Employee-Id"})
			}
			if !reHex32.MatchString(employeeID) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid Ax-Employee-Id"})
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			digest := hashBody(body)

			key := idempotencyKey(req.Method, c.Path(), employeeID, reqID)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			acquired, err := st.lock(ctx, key, record{
				Pending:   true,
				BodyHash:  digest,
				RequestID: reqID,
				RequestAt: reqAt.UnixMilli(),
				StoredAt:  now,
			})
			if err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !acquired {
				prev, errLoad := st.load(ctx, key)
				if errLoad != nil {
					log.Printf("idempotency: load %s failed: %s", key, errLoad.Error())
				}
				if prev.BodyHash != "" && prev.BodyHash != digest {
					return c.JSON(http.StatusConflict, map[string]string{"error": "Ax-Request-Id reused with different body"})
				}
				if !prev.Pending && prev.Status != 0 && len(prev.Payload) > 0 {
					return c.Blob(prev.Status, echo.MIMEApplicationJSON, prev.Payload)
				}
				return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			if err := next(c); err != nil {
				c.Error(err)
			}

			// The response has already been sent; the replay record must be
			// written even if the request context is gone.
			_ = st.finish(context.Background(), key, record{
				Status:    cw.status,
				Payload:   cw.buf.Bytes(),
				BodyHash:  digest,
				RequestID: reqID,
				RequestAt: reqAt.UnixMilli(),
				StoredAt:  time.Now().UTC(),
			}, ttl)
			return nil
		}
	}
}
