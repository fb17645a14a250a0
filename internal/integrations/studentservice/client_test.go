package studentservice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
)

func TestClient_IsEnrolled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/internal/students/1":
			_, _ = w.Write([]byte(`{"identity":1,"full_name":"Ivan","enrolled":true}`))
		case "/internal/students/2":
			_, _ = w.Write([]byte(`{"identity":2,"full_name":"Petr","enrolled":false}`))
		case "/internal/students/3":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, logger.NewNop())
	ctx := context.Background()

	enrolled, err := client.IsEnrolled(ctx, 1)
	require.NoError(t, err)
	assert.True(t, enrolled)

	enrolled, err = client.IsEnrolled(ctx, 2)
	require.NoError(t, err)
	assert.False(t, enrolled)

	enrolled, err = client.IsEnrolled(ctx, 3)
	require.NoError(t, err)
	assert.False(t, enrolled)

	enrolled, err = client.IsEnrolled(ctx, 4)
	assert.True(t, errors.Is(err, ErrServiceDegraded))
	assert.False(t, enrolled)
}
