package client

import (
	"fmt"
	"net/url"
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents a 429 that persisted after the retry.
	ErrorClassRateLimit ErrorClass = "rate_limit"
)

// maxErrorBody caps how much of the body Error() prints.
const maxErrorBody = 2048

// APIError is returned when the final response status is >= 400.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	URL        string
	Params     url.Values
	// Body is the raw response text.
	Body string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	body := e.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return fmt.Sprintf("GET %d :: %s params=%s resp=%s",
		e.StatusCode, e.URL, e.Params.Encode(), body)
}

func classifyStatus(status int) ErrorClass {
	switch {
	case status == 429:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	case status >= 400:
		return ErrorClassClient
	default:
		return ""
	}
}
