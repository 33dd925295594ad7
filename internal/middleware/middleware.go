// Package middleware содержит HTTP-обёртки над http.Handler:
// логирование запросов, basic auth, JSON-заголовок и таймаут.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// LoggingMiddleware пишет в лог метод, путь, статус и длительность запроса.
//
// Запись делается после next.ServeHTTP, поэтому в duration входит вся
// цепочка обработчиков ниже.
func LoggingMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chiMiddleware.GetReqID(r.Context()),
			)
		})
	}
}

// BasicAuthMiddleware защищает эндпоинт HTTP Basic Auth.
//
// Пустой user отключает проверку. При неудаче выставляет WWW-Authenticate,
// отвечает 401 и не вызывает next.
func BasicAuthMiddleware(user, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if user == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name, pass, ok := r.BasicAuth()
			if !ok || !equal(name, user) || !equal(pass, password) {
				w.Header().Set("WWW-Authenticate", `Basic realm="todo"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// JSONHeaderMiddleware проставляет Content-Type для JSON-ответов.
// Заголовок должен быть выставлен до записи тела.
func JSONHeaderMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// RequestTimeoutMiddleware ограничивает обработку запроса через context.WithTimeout.
//
// Сработает только там, где нижние слои проверяют ctx.Err().
func RequestTimeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
