package get_available_windows

import (
	"net/http"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/middleware"
)

type Handler struct {
	resolver AvailabilityResolver
	logger   Logger
}

func NewHandler(resolver AvailabilityResolver, logger Logger) *Handler {
	return &Handler{
		resolver: resolver,
		logger:   logger,
	}
}

// Handle GET /api/v1/availability?date=YYYY-MM-DD
// Окна, зарезервированные за пользователем, видны только ему (X-User-ID)
// Пустая или нераспознанная дата, как и прошедшая, даёт пустой список
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")

	date, err := handlers.ParseDate(dateStr)
	if err != nil {
		h.logger.Warn("GET /availability - Unparsable date %q, nothing to offer: %v", dateStr, err)
		handlers.RespondJSON(w, http.StatusOK, &AvailabilityResponse{Date: dateStr, Windows: []WindowResponse{}})
		return
	}

	windows, err := h.resolver.GetAvailableWindows(r.Context(), date, middleware.UserIDPtr(r.Context()))
	if err != nil {
		h.logger.Error("GET /availability - Failed to resolve windows: date=%s, error=%v", dateStr, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /availability - Windows resolved: date=%s, windows_count=%d", dateStr, len(windows))
	handlers.RespondJSON(w, http.StatusOK, FromDomain(date, windows))
}
