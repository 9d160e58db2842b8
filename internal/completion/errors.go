package completion

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIError represents a non-2xx provider response.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "unknown API error"
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, msg)
}

// RateLimitError indicates throttling by the provider.
type RateLimitError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "rate limit exceeded"
	}
	if e.RetryAfter > 0 {
		msg = fmt.Sprintf("%s (retry after %s)", msg, e.RetryAfter.Round(time.Second))
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, msg)
}

// classifyAPIError converts an error response into a typed error.
func classifyAPIError(statusCode int, payload string, retryAfter time.Duration) error {
	payload = strings.TrimSpace(payload)
	message := extractAPIErrorMessage(payload)
	if message == "" {
		message = payload
	}

	if statusCode == http.StatusTooManyRequests {
		return &RateLimitError{StatusCode: statusCode, Message: message, RetryAfter: retryAfter}
	}
	return &APIError{StatusCode: statusCode, Message: message, Body: payload}
}

// extractAPIErrorMessage reads {"error":{"message":...}} or {"error":"..."}.
func extractAPIErrorMessage(payload string) string {
	if payload == "" || payload[0] != '{' {
		return ""
	}
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal([]byte(payload), &body); err != nil || len(body.Error) == 0 {
		return ""
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &nested); err == nil && nested.Message != "" {
		return nested.Message
	}
	var flat string
	if err := json.Unmarshal(body.Error, &flat); err == nil {
		return flat
	}
	return ""
}

func parseRetryAfterHeader(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
