package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// record is what one request id maps to: the in-progress marker while the
// handler runs, the finished response afterwards.
type record struct {
	Pending   bool      `json:"pending"`
	Status    int       `json:"status"`
	Payload   []byte    `json:"payload"`
	BodyHash  string    `json:"body_hash"`
	RequestID string    `json:"request_id"`
	RequestAt int64     `json:"request_at_ms"`
	StoredAt  time.Time `json:"stored_at"`
}

// store keeps idempotency records in Redis. lock is a SetNX with the short
// provisional TTL; finish overwrites with the replayable response under the
// caller's retention TTL.
type store struct {
	rdb *redis.Client
}

func (s store) lock(ctx context.Context, key string, r record) (bool, error) {
	payload, _ := json.Marshal(r)
	return s.rdb.SetNX(ctx, key, payload, lockTTL).Result()
}

func (s store) load(ctx context.Context, key string) (record, error) {
	var r record
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, err
	}
	_ = json.Unmarshal(v, &r)
	return r, nil
}

func (s store) finish(ctx context.Context, key string, r record, ttl time.Duration) error {
	payload, _ := json.Marshal(r)
	return s.rdb.Set(ctx, key, payload, ttl).Err()
}

func idempotencyKey(method, path, employeeID, requestID string) string {
	return "idem:" + strings.ToLower(method) + ":" + path + ":" + employeeID + ":" + requestID
}

func hashBody(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

func isRequestID(id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	return reUUID.MatchString(id) || reHex32.MatchString(id)
}

// parseRequestAt accepts epoch seconds, epoch milliseconds, or RFC3339 /
// RFC3339Nano with an explicit zone. Naive timestamps are rejected: a
// zoneless wall clock can't be compared against the server's.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing Ax-Request-At")
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New("Ax-Request-At must be epoch (s/ms) or RFC3339 with timezone")
}
