package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/mail"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const (
	// CustomerEmailHeader заголовок с email клиента, проставляется провайдером идентификации
	CustomerEmailHeader = "X-Customer-Email"
	// AdminTokenHeader заголовок с токеном администратора
	AdminTokenHeader = "X-Admin-Token"
)

type contextKey string

const customerEmailKey contextKey = "customerEmail"

// Auth требует X-Customer-Email и кладет нормализованный email в контекст
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := parseEmail(r.Header.Get(CustomerEmailHeader))
		if !ok {
			handlers.RespondUnauthorized(w, "missing or invalid "+CustomerEmailHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCustomerEmail(r.Context(), email)))
	})
}

// OptionalAuth кладет email в контекст, если заголовок есть и корректен
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if email, ok := parseEmail(r.Header.Get(CustomerEmailHeader)); ok {
			r = r.WithContext(WithCustomerEmail(r.Context(), email))
		}
		next.ServeHTTP(w, r)
	})
}

// AdminToken пропускает запрос только с совпадающим X-Admin-Token.
// Пустой token закрывает маршрут полностью
func AdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdminTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				handlers.RespondForbidden(w, "admin token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithCustomerEmail кладет email клиента в контекст
func WithCustomerEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, customerEmailKey, email)
}

// GetCustomerEmail достает email клиента из контекста
func GetCustomerEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(customerEmailKey).(string)
	return email, ok && email != ""
}

func parseEmail(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", false
	}
	return domain.NormalizeEmail(addr.Address), true
}
