package middleware

import (
	"context"
	"net/http"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader        = "X-Request-Id"
	RequestIDContextKey    = contextKey("request_id")
	maxInboundRequestIDLen = 128
)

// RequestID tags every request with an id, reusing a sane inbound
// X-Request-Id and minting a ULID otherwise. The id is echoed back in the
// response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxInboundRequestIDLen {
			id = ulid.Make().String()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the id RequestID stored, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// Log returns a logrus entry carrying the request id and the actor, when known.
func Log(r *http.Request) *logrus.Entry {
	fields := logrus.Fields{}
	if id := GetRequestID(r.Context()); id != "" {
		fields["request_id"] = id
	}
	if actor, ok := Actor(r.Context()); ok {
		fields["actor"] = actor
	}
	return logrus.WithFields(fields)
}
