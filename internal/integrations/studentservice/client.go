package studentservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client клиент для работы с StudentService
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента StudentService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetStudent получает карточку ученика по identity
func (c *Client) GetStudent(ctx context.Context, identity int64) (*Student, error) {
	url := fmt.Sprintf("%s/internal/students/%d", c.baseURL, identity)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrStudentNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var student Student
	if err := json.NewDecoder(resp.Body).Decode(&student); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return &student, nil
}

// IsEnrolled сообщает, зачислен ли identity на курс
// Незарегистрированный identity не зачислен. При недоступности сервиса
// возвращается false вместе с ErrServiceDegraded
func (c *Client) IsEnrolled(ctx context.Context, identity int64) (bool, error) {
	student, err := c.GetStudent(ctx, identity)
	if err != nil {
		if err == ErrStudentNotFound {
			c.log.Info("Identity %d is not a registered student", identity)
			return false, nil
		}

		c.log.Error("StudentService unavailable, treating identity=%d as untrusted: %v", identity, err)
		return false, fmt.Errorf("%w: identity=%d, error=%v", ErrServiceDegraded, identity, err)
	}

	return student.Enrolled, nil
}
