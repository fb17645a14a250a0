package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	RoleStaff = "staff"
	RoleAdmin = "admin"

	msgUnauthorized  = "требуется заголовок X-User-ID"
	msgInvalidUserID = "некорректный X-User-ID"
	msgForbidden     = "операция доступна только сотрудникам"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	staffKey
)

// Identify читает X-User-ID и X-User-Role, если они есть; гость проходит без identity
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			handlers.RespondUnauthorized(w, msgInvalidUserID)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		role := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))
		if role == RoleStaff || role == RoleAdmin {
			ctx = context.WithValue(ctx, staffKey, true)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Auth требует X-User-ID
func Auth(next http.Handler) http.Handler {
	return Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserID(r.Context()); !ok {
			handlers.RespondUnauthorized(w, msgUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequireStaff пропускает только сотрудников автошколы
func RequireStaff(next http.Handler) http.Handler {
	return Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsStaff(r.Context()) {
			handlers.RespondForbidden(w, msgForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// GetUserID identity пользователя из контекста
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

// UserIDPtr identity пользователя или nil для гостя
func UserIDPtr(ctx context.Context) *int64 {
	if userID, ok := GetUserID(ctx); ok {
		return &userID
	}
	return nil
}

func IsStaff(ctx context.Context) bool {
	staff, _ := ctx.Value(staffKey).(bool)
	return staff
}
