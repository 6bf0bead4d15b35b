package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name          string
		field         string
		message       string
		value         interface{}
		expectedError string
	}{
		{
			name:          "with field",
			field:         "host",
			message:       "must use https",
			value:         "http://10.0.0.1",
			expectedError: "validation error: host: must use https",
		},
		{
			name:          "without field",
			field:         "",
			message:       "invalid input",
			value:         nil,
			expectedError: "validation error: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, tt.value)
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error %q, got %q", tt.expectedError, err.Error())
			}
			if err.Code() != CodeValidation {
				t.Errorf("Expected code %q, got %q", CodeValidation, err.Code())
			}
			if err.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, err.Field)
			}
		})
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name          string
		resource      string
		id            string
		expectedError string
	}{
		{
			name:          "with ID",
			resource:      "allocation",
			id:            "8f2c",
			expectedError: "allocation with ID '8f2c' not found",
		},
		{
			name:          "without ID",
			resource:      "task",
			id:            "",
			expectedError: "task not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewNotFoundError(tt.resource, tt.id)
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error %q, got %q", tt.expectedError, err.Error())
			}
			if err.Code() != CodeNotFound {
				t.Errorf("Expected code %q, got %q", CodeNotFound, err.Code())
			}
		})
	}
}

func TestConnectionError(t *testing.T) {
	cause := fmt.Errorf("dial tcp 10.0.0.1:4646: connect: connection refused")
	err := NewConnectionError("https://10.0.0.1:4646", cause)

	if err.Code() != CodeConnection {
		t.Errorf("Expected code %q, got %q", CodeConnection, err.Code())
	}
	want := "cannot connect to https://10.0.0.1:4646: dial tcp 10.0.0.1:4646: connect: connection refused"
	if err.Error() != want {
		t.Errorf("Expected error %q, got %q", want, err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected cause to be reachable through Unwrap")
	}

	if got := NewConnectionError("", nil).Error(); got != "connection failed" {
		t.Errorf("Expected default message, got %q", got)
	}
}

func TestCertificateError(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		message string
		want    string
	}{
		{"with path", "/keys/ca.pem", "cannot read CA bundle", "cannot read CA bundle (/keys/ca.pem)"},
		{"default message", "", "", "certificate error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCertificateError(tt.path, tt.message, nil)
			if err.Error() != tt.want {
				t.Errorf("Expected error %q, got %q", tt.want, err.Error())
			}
			if err.Path != tt.path {
				t.Errorf("Expected path %q, got %q", tt.path, err.Path)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		statusCode int
		want       string
	}{
		{"with status", "list jobs", 500, "list jobs failed (status 500)"},
		{"without status", "fetch logs", 0, "fetch logs failed"},
		{"bare", "", 0, "transport error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTransportError(tt.operation, tt.statusCode, nil)
			if err.Message() != tt.want {
				t.Errorf("Expected message %q, got %q", tt.want, err.Message())
			}
			if err.Code() != CodeTransport {
				t.Errorf("Expected code %q, got %q", CodeTransport, err.Code())
			}
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if Wrap(nil, "context") != nil {
			t.Error("Expected nil")
		}
	})

	t.Run("typed error keeps code", func(t *testing.T) {
		wrapped := Wrap(NewNotFoundError("job", "web"), "lookup failed")
		if GetErrorCode(wrapped) != CodeNotFound {
			t.Errorf("Expected code %q, got %q", CodeNotFound, GetErrorCode(wrapped))
		}
		if !IsNotFound(wrapped) {
			t.Error("Expected wrapped error to still be NotFound")
		}
	})

	t.Run("plain error becomes transport", func(t *testing.T) {
		wrapped := Wrap(fmt.Errorf("boom"), "decode")
		if !IsTransport(wrapped) {
			t.Error("Expected TransportError")
		}
		if wrapped.Error() != "decode: boom" {
			t.Errorf("Unexpected message %q", wrapped.Error())
		}
	})
}

func TestWrapf(t *testing.T) {
	err := Wrapf(fmt.Errorf("eof"), "job %s", "web")
	if err.Error() != "job web: eof" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestStackTrace(t *testing.T) {
	err := NewConnectionError("addr", nil)
	trace := err.StackTrace()
	if !strings.Contains(trace, "TestStackTrace") {
		t.Errorf("Expected stack trace to contain the test function, got:\n%s", trace)
	}
}

func TestNewf(t *testing.T) {
	err := Newf("task %q missing", "web")
	if err.Error() != `task "web" missing` {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if GetErrorCode(err) != CodeUnknown {
		t.Errorf("Expected code %q, got %q", CodeUnknown, GetErrorCode(err))
	}
}
