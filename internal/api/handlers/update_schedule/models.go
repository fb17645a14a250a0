package update_schedule

import (
	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/schedule/models"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/types"
)

// BlockedRangeRequest HTTP request model; без времени блокируется весь день
type BlockedRangeRequest struct {
	Date      string  `json:"date"`
	StartTime *string `json:"startTime,omitempty"`
	EndTime   *string `json:"endTime,omitempty"`
	Reason    string  `json:"reason"`
}

// ExtraWindowRequest HTTP request model
type ExtraWindowRequest struct {
	Date                string  `json:"date"`
	StartTime           string  `json:"startTime"`
	EndTime             string  `json:"endTime"`
	Reason              *string `json:"reason,omitempty"`
	ReservedForIdentity *int64  `json:"reservedForIdentity,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *BlockedRangeRequest) ToServiceRequest() (*models.BlockedRangeInput, error) {
	date, err := handlers.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}

	input := &models.BlockedRangeInput{Date: date, Reason: r.Reason}
	if r.StartTime != nil {
		start, err := types.NewTimeStringFromString(*r.StartTime)
		if err != nil {
			return nil, err
		}
		input.StartTime = &start
	}
	if r.EndTime != nil {
		end, err := types.NewTimeStringFromString(*r.EndTime)
		if err != nil {
			return nil, err
		}
		input.EndTime = &end
	}
	return input, nil
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *ExtraWindowRequest) ToServiceRequest() (*models.ExtraWindowInput, error) {
	date, err := handlers.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}
	start, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := types.NewTimeStringFromString(r.EndTime)
	if err != nil {
		return nil, err
	}

	return &models.ExtraWindowInput{
		Date:                date,
		StartTime:           start,
		EndTime:             end,
		Reason:              r.Reason,
		ReservedForIdentity: r.ReservedForIdentity,
	}, nil
}
