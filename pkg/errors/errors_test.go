package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidCoord, "declination out of range: %v", 95.0)

	if err.Code != ErrCodeInvalidCoord {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidCoord)
	}

	if err.Message != "declination out of range: 95" {
		t.Errorf("Message = %v, want %v", err.Message, "declination out of range: 95")
	}

	expected := "INVALID_COORD: declination out of range: 95"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNetwork, cause, "failed to fetch")

	if err.Code != ErrCodeNetwork {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNetwork)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidQuery, "test"),
			code:     ErrCodeInvalidQuery,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidQuery, "test"),
			code:     ErrCodeNetwork,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeNetwork, New(ErrCodeInvalidQuery, "inner"), "outer"),
			code:     ErrCodeNetwork,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidQuery,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidQuery,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeObjectNotFound, "test"),
			expected: ErrCodeObjectNotFound,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestServiceError(t *testing.T) {
	err := &ServiceError{Service: "gaia", Message: "could not parse query"}
	if err.Error() != "gaia: could not parse query" {
		t.Errorf("Error() = %q", err.Error())
	}

	anon := &ServiceError{Message: "bad request"}
	if anon.Error() != "bad request" {
		t.Errorf("Error() = %q", anon.Error())
	}
}

func TestNewParseError_TruncatesRaw(t *testing.T) {
	raw := make([]byte, RawLimit*2)
	for i := range raw {
		raw[i] = 'x'
	}

	err := NewParseError("votable", raw, errors.New("unexpected EOF"))
	if len(err.Raw) != RawLimit {
		t.Errorf("len(Raw) = %d, want %d", len(err.Raw), RawLimit)
	}
	if err.Error() != "malformed votable response: unexpected EOF" {
		t.Errorf("Error() = %q", err.Error())
	}
}
