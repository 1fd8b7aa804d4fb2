package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
)

// wizardPrefix marks the routes that carry a wizard session.
const wizardPrefix = "/api/wizard/"

// responseWriter wraps http.ResponseWriter to capture status code and bytes written.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// recoveryMiddleware catches panics and returns 500.
func recoveryMiddleware(logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error().
						Str("panic", fmt.Sprintf("%v", rec)).
						Str("path", r.URL.Path).
						Msg("Panic recovered in HTTP handler")
					WriteError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware allows cross-origin front ends with credentials.
func corsMiddleware() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc:  func(r *http.Request, origin string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Correlation-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// correlationIDMiddleware extracts or generates a correlation ID.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corrID := r.Header.Get("X-Request-ID")
		if corrID == "" {
			corrID = r.Header.Get("X-Correlation-ID")
		}
		if corrID == "" {
			corrID = uuid.New().String()[:8]
		}
		w.Header().Set("X-Correlation-ID", corrID)
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			dur := time.Since(start)
			corrID := w.Header().Get("X-Correlation-ID")

			event := logger.Trace()
			if rw.statusCode >= 500 {
				event = logger.Error()
			} else if rw.statusCode >= 400 {
				event = logger.Info()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("query", r.URL.RawQuery).
				Int("status", rw.statusCode).
				Int("bytes", rw.bytesWritten).
				Dur("duration", dur).
				Str("correlation_id", corrID).
				Msg("HTTP request")
		})
	}
}

// sessionMiddleware resolves the wizard session for /api/wizard/ routes from
// the session cookie, creating one when the cookie is absent, unknown or
// idle past the TTL. Requests sharing a cookie run one at a time, and the
// session is saved after the handler returns.
func sessionMiddleware(store interfaces.SessionStore, config *common.Config, logger *common.Logger) func(http.Handler) http.Handler {
	cookieName := config.Session.CookieName
	if cookieName == "" {
		cookieName = "nestegg_session"
	}
	ttl := config.Session.GetTTL()
	secure := config.IsProduction()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, wizardPrefix) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			var sess *models.WizardSession
			if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
				unlock := store.Lock(c.Value)
				defer unlock()
				sess = loadSession(c.Value, store, ttl, logger)
			}
			if sess == nil {
				created, err := store.Create()
				if err != nil {
					logger.Error().Err(err).Msg("Failed to create session")
					WriteError(w, http.StatusInternalServerError, "Failed to create session")
					return
				}
				sess = created
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    sess.ID,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(common.WithSession(r.Context(), sess)))

			if err := store.Save(sess); err != nil {
				logger.Warn().Str("session_id", sess.ID).Err(err).Msg("Failed to save session")
			}
		})
	}
}

// loadSession returns the live session for id, deleting it when idle past ttl.
func loadSession(id string, store interfaces.SessionStore, ttl time.Duration, logger *common.Logger) *models.WizardSession {
	sess, ok := store.Get(id)
	if !ok {
		return nil
	}
	if time.Since(sess.LastSeen) > ttl {
		logger.Debug().Str("session_id", sess.ID).Msg("Session expired")
		if err := store.Delete(sess.ID); err != nil {
			logger.Warn().Str("session_id", sess.ID).Err(err).Msg("Failed to delete expired session")
		}
		return nil
	}
	return sess
}

// applyMiddleware wraps a handler with the middleware stack.
func applyMiddleware(handler http.Handler, logger *common.Logger, config *common.Config, store interfaces.SessionStore) http.Handler {
	// Apply in reverse order (last applied = first executed)
	handler = sessionMiddleware(store, config, logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = correlationIDMiddleware(handler)
	handler = corsMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)
	return handler
}
