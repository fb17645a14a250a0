package catalogservice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
)

func TestClient_GetLessonType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/internal/lesson-types/10":
			_, _ = w.Write([]byte(`{"id":10,"name":"Theory course","resource_type":"course","capacity":12,"supervisor_limit":2,"duration_minutes":90,"price":"45.50","currency":"EUR"}`))
		case "/internal/lesson-types/11":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, logger.NewNop())

	lt, err := client.GetLessonType(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 12, lt.Capacity)
	assert.Equal(t, 2, lt.SupervisorLimit)
	assert.Equal(t, 90, lt.DurationMinutes)
	assert.True(t, decimal.RequireFromString("45.5").Equal(lt.Price))

	_, err = client.GetLessonType(context.Background(), 11)
	assert.True(t, errors.Is(err, ErrLessonTypeNotFound))

	_, err = client.GetLessonType(context.Background(), 12)
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}
