package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrUpstream     = errors.New("catalog unavailable")
)

// APIError is a non-2xx answer from the catalog.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog: %d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusConflict:
		return ErrConflict
	case e.Status == http.StatusBadRequest:
		return ErrBadRequest
	default:
		return ErrUpstream
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// Credentials supplies the bearer token for outgoing calls. A session is the
// usual implementation; an empty token sends no Authorization header.
type Credentials interface {
	AccessToken() string
}

// NewRest returns the shared catalog client. Only GETs are retried, and only
// on transport errors or 5xx answers.
func NewRest(baseURL string, timeout time.Duration, retries int) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(retries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
}

func request(ctx context.Context, rest *resty.Client, creds Credentials) *resty.Request {
	req := rest.R().SetContext(ctx).SetError(&errorBody{})
	if creds != nil {
		if token := creds.AccessToken(); token != "" {
			req.SetAuthToken(token)
		}
	}
	return req
}

// check turns a transport failure or an error status into an error.
func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode(), Message: resp.Status()}
	if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}
