package list_reservations

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations/models"
)

var (
	errMissingDate = errors.New("date is required")
	errBadStatus   = errors.New("unknown status")
)

// ToFilter собирает фильтр из query параметров date, status, includeCancelled
func ToFilter(query url.Values) (domain.ReservationsFilter, error) {
	var filter domain.ReservationsFilter

	dateStr := query.Get("date")
	if dateStr == "" {
		return filter, errMissingDate
	}
	date, err := handlers.ParseDate(dateStr)
	if err != nil {
		return filter, err
	}
	filter.Date = &date

	if statusStr := query.Get("status"); statusStr != "" {
		status, ok := models.ToDomainStatus(statusStr)
		if !ok {
			return filter, errBadStatus
		}
		filter.Status = &status
	}

	if raw := query.Get("includeCancelled"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, err
		}
		filter.IncludeCancelled = include
	}

	return filter, nil
}
