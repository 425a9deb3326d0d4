package apierr

import (
	"errors"
	"fmt"
	"testing"
)

func TestAuthErrorMatchesByKind(t *testing.T) {
	err := SessionExpired(RefreshRejected(401, "token_not_valid"))
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected session expired, got %v", err)
	}
	if !errors.Is(err, ErrRefreshRejected) {
		t.Fatalf("expected cause to be refresh rejected, got %v", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatalf("did not expect unauthorized to match %v", err)
	}

	wrapped := fmt.Errorf("grades: %w", SessionExpired(ErrNoRefreshToken))
	if !errors.Is(wrapped, ErrNoRefreshToken) {
		t.Fatalf("expected no refresh token through wrapping, got %v", wrapped)
	}
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"expired", SessionExpired(ErrNoRefreshToken), "Session expired. Please log in again."},
		{"parent", &ServerError{Status: 404, Message: "Parent profile not found"}, "No parent profile associated with your account. Please contact support."},
		{"no students", &ServerError{Status: 404, Message: "No students linked"}, "No students linked to your account."},
		{"network", &NetworkError{Op: "GET /api/student/grades/", Err: errors.New("connection refused")}, "Network request failed. Check your connection or server."},
		{"server", &ServerError{Status: 500}, "Failed to load data. Please try again."},
		{"validation", NewValidationError(FieldError{Field: "grade", Error: "must be between 0 and 20"}), "validation failed: grade: must be between 0 and 20"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := UserMessage(tc.err); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestIsSystem(t *testing.T) {
	if !IsSystem(&ServerError{Status: 502}) {
		t.Fatalf("expected 502 to be a system error")
	}
	if IsSystem(&ServerError{Status: 400, Message: "Bad Request"}) {
		t.Fatalf("expected 400 not to be a system error")
	}
	if !IsSystem(fmt.Errorf("x: %w", &NetworkError{Op: "GET", Err: errors.New("timeout")})) {
		t.Fatalf("expected network error to be a system error")
	}
	if IsSystem(ErrSessionExpired) {
		t.Fatalf("expected auth errors not to be system errors")
	}
}

func TestFromResponse(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"error":"Parent profile not found"}`, "http 404: Parent profile not found"},
		{`{"detail":"Not found."}`, "http 404: Not found."},
		{`{"message":"nope","detail":"ignored"}`, "http 404: nope"},
		{`<html>`, "HTTP error! status: 404"},
		{``, "HTTP error! status: 404"},
	}
	for _, tc := range cases {
		if got := FromResponse(404, []byte(tc.body)).Error(); got != tc.want {
			t.Fatalf("body %q: expected %q, got %q", tc.body, tc.want, got)
		}
	}
}
