package create_reservation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/middleware"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations/models"
	createReservation "github.com/m04kA/SMC-DrivingSchoolService/internal/usecase/create_reservation"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
)

type fakeUseCase struct {
	got *createReservation.Request
	err error
}

func (f *fakeUseCase) Execute(_ context.Context, req *createReservation.Request) (*models.ReservationResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReservationResponse{ID: 11, Date: "2026-03-10", StartTime: "10:00", EndTime: "11:00", Status: "held"}, nil
}

func do(h *Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	middleware.Identify(http.HandlerFunc(h.Handle)).ServeHTTP(rec, req)
	return rec
}

const validBody = `{"date":"2026-03-10","startTime":"10:00","participants":[{"identity":5}]}`

func TestHandle_Created(t *testing.T) {
	uc := &fakeUseCase{}
	h := NewHandler(uc, logger.NewNop())

	rec := do(h, validBody, map[string]string{middleware.HeaderUserID: "5"})

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.ReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(11), resp.ID)

	require.NotNil(t, uc.got)
	assert.Equal(t, "10:00", uc.got.StartTime.String())
	require.NotNil(t, uc.got.Identity)
	assert.Equal(t, int64(5), *uc.got.Identity)
}

func TestHandle_GuestHasNoIdentity(t *testing.T) {
	uc := &fakeUseCase{}
	h := NewHandler(uc, logger.NewNop())

	rec := do(h, `{"date":"2026-03-10","startTime":"10:00","participants":[{"guest":{"name":"Anna","email":"anna@example.com"}}]}`, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, uc.got.Identity)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		status  int
		message string
	}{
		{name: "bad json", body: `{"date":`, status: http.StatusBadRequest, message: msgInvalidRequestBody},
		{name: "unknown field", body: `{"date":"2026-03-10","startTime":"10:00","room":1}`, status: http.StatusBadRequest, message: msgInvalidRequestBody},
		{name: "bad date", body: `{"date":"10.03.2026","startTime":"10:00"}`, status: http.StatusBadRequest, message: msgInvalidDate},
		{name: "bad time", body: `{"date":"2026-03-10","startTime":"25:00"}`, status: http.StatusBadRequest, message: msgInvalidTime},
		{name: "slot taken", body: validBody, err: createReservation.ErrSlotUnavailable, status: http.StatusConflict, message: msgSlotUnavailable},
		{name: "capacity", body: validBody, err: createReservation.ErrCapacityExceeded, status: http.StatusConflict, message: msgCapacityExceeded},
		{name: "lesson type", body: validBody, err: createReservation.ErrLessonTypeNotFound, status: http.StatusNotFound, message: msgLessonTypeNotFound},
		{name: "validation", body: validBody, err: createReservation.ErrInvalidInput, status: http.StatusBadRequest, message: msgInvalidData},
		{name: "internal", body: validBody, err: errors.New("db down"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeUseCase{err: tt.err}, logger.NewNop())

			rec := do(h, tt.body, nil)

			assert.Equal(t, tt.status, rec.Code)
			if tt.message != "" {
				assert.Contains(t, rec.Body.String(), tt.message)
			}
		})
	}
}
