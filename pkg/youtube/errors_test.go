package youtube

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsCredentialError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"forbidden", &APIError{StatusCode: 403}, true},
		{"unauthorized", &APIError{StatusCode: 401}, true},
		{"quota reason", &APIError{StatusCode: 400, Reason: "quotaExceeded"}, true},
		{"daily limit reason", &APIError{StatusCode: 400, Reason: "dailyLimitExceeded"}, true},
		{"bad key reason", &APIError{StatusCode: 400, Reason: "keyInvalid"}, true},
		{"rate limited", &APIError{StatusCode: 429}, false},
		{"server error", &APIError{StatusCode: 500}, false},
		{"bad request", &APIError{StatusCode: 400, Reason: "invalidParameter"}, false},
		{"wrapped", fmt.Errorf("search.list: %w", &APIError{StatusCode: 403}), true},
		{"plain error", errors.New("connection refused"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCredentialError(tt.err); got != tt.want {
				t.Errorf("IsCredentialError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &APIError{StatusCode: 429}, true},
		{"server error", &APIError{StatusCode: 503}, true},
		{"transport failure", errors.New("connection reset"), true},
		{"wrapped transport failure", fmt.Errorf("search.list: %w", errors.New("EOF")), true},
		{"forbidden", &APIError{StatusCode: 403}, false},
		{"bad request", &APIError{StatusCode: 400}, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	withReason := &APIError{StatusCode: 403, Reason: "quotaExceeded", Message: "Quota exceeded"}
	if got := withReason.Error(); got != "upstream error 403 (quotaExceeded): Quota exceeded" {
		t.Errorf("Error() = %q", got)
	}
	plain := &APIError{StatusCode: 500, Message: "boom"}
	if got := plain.Error(); got != "upstream error 500: boom" {
		t.Errorf("Error() = %q", got)
	}
}
