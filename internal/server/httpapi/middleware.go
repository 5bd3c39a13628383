package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/modus/internal/logging"
)

type ctxKey string

const sessionUserKey ctxKey = "session_user"

// TokenHeader is the preferred place for clients to present the session
// token. A `token` field in a JSON body is still honored for clients
// that send it the legacy way.
const TokenHeader = "X-Session-Token"

// SessionUserFromContext returns the subject of the validated session
// token, set by the authorize middleware.
func SessionUserFromContext(ctx context.Context) string {
	user, _ := ctx.Value(sessionUserKey).(string)
	return user
}

// authorize gates privileged routes. The token is read from the
// X-Session-Token header first; when absent there, a JSON body with a
// `token` field is consulted (the body is restored for the handler).
// Any denial short-circuits with {"error": reason}.
func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(TokenHeader)
		if token == "" {
			token = s.tokenFromBody(r)
		}

		auth := s.codec.Validate(token)
		if !auth.Allowed {
			writeError(w, http.StatusBadRequest, auth.Reason)
			return
		}

		ctx := context.WithValue(r.Context(), sessionUserKey, auth.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// tokenFromBody peeks a `token` field out of a JSON body without
// consuming it.
func (s *Server) tokenFromBody(r *http.Request) string {
	if r.Body == nil || !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return ""
	}

	raw, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Token
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger emits one structured line per request, tagged with a
// generated request id.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info(r.Context(), "request",
				"request_id", uuid.NewString(),
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}
