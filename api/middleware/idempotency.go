package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medhealth/fieldforce-backend/api/responses"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/logger"
	pkgredis "github.com/medhealth/fieldforce-backend/pkg/redis"
)

// IdempotencyHeader names the optional client-supplied replay key.
const IdempotencyHeader = "Idempotency-Key"

// ReplayedHeader is set on responses served from the idempotency store.
const ReplayedHeader = "Idempotent-Replayed"

// DefaultIdempotencyTTL is how long a stored response can be replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

const idempotentBodyLimit = 1 << 20

// replay is the stored outcome of the first request carrying a key. Body is
// base64 on the wire through encoding/json.
type replay struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays the stored response when a request repeats its
// Idempotency-Key within ttl. Requests without a key pass through untouched.
// A key reused with a different body is rejected, and 5xx outcomes are never
// stored so the client can retry them.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, idempotentBodyLimit))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large or unreadable"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := sha256.Sum256(body)
			requestHash := hex.EncodeToString(hash[:])
			key := store.IdempotencyKey(UserIDFromContext(ctx)+":"+r.Method+":"+r.URL.Path, clientKey)

			prior, err := lookupReplay(ctx, store, key)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store unavailable"))
				return
			}
			if prior != nil {
				if prior.RequestHash != requestHash {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				prior.write(w)
				return
			}

			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)
			if capture.status >= http.StatusInternalServerError {
				return
			}

			payload, err := json.Marshal(replay{
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				RequestHash: requestHash,
			})
			if err == nil {
				_, err = store.SetNX(ctx, key, string(payload), ttl)
			}
			if err != nil && logg != nil {
				logg.Error(ctx, "persist idempotent response", err)
			}
		})
	}
}

func lookupReplay(ctx context.Context, store pkgredis.IdempotencyStore, key string) (*replay, error) {
	stored, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && stored == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var prior replay
	if err := json.Unmarshal([]byte(stored), &prior); err != nil {
		return nil, err
	}
	return &prior, nil
}

func (p *replay) write(w http.ResponseWriter) {
	if p.ContentType != "" {
		w.Header().Set("Content-Type", p.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(p.Status)
	_, _ = w.Write(p.Body)
}

type responseCapture struct {
	http.ResponseWriter
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func (c *responseCapture) WriteHeader(code int) {
	if !c.wroteHeader {
		c.status = code
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	c.wroteHeader = true
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
