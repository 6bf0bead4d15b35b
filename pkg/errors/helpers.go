package errors

import "errors"

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr) || errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr) || errors.Is(err, ErrInvalidInput)
}

// IsConnection checks if an error means the API could not be reached.
func IsConnection(err error) bool {
	if err == nil {
		return false
	}

	var connErr *ConnectionError
	return errors.As(err, &connErr) || errors.Is(err, ErrConnection)
}

// IsCertificate checks if an error is caused by the TLS material.
func IsCertificate(err error) bool {
	if err == nil {
		return false
	}

	var certErr *CertificateError
	return errors.As(err, &certErr) || errors.Is(err, ErrCertificate)
}

// IsTransport checks if an error is an unexpected API response.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}

	var transportErr *TransportError
	return errors.As(err, &transportErr) || errors.Is(err, ErrTransport)
}

// ShouldRetry checks if an operation could be retried based on the error.
// Transport errors only qualify when the server answered with a 5xx.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	if IsConnection(err) {
		return true
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.StatusCode == 0 || transportErr.StatusCode >= 500
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return IsRetryable(customErr.Code())
	}

	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Code()
	}

	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsConnection(err):
		return CodeConnection
	case IsCertificate(err):
		return CodeCertificate
	case IsTransport(err):
		return CodeTransport
	case IsValidation(err):
		return CodeValidation
	default:
		return CodeUnknown
	}
}

// GetErrorMessage extracts a human-readable message from an error.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Message()
	}

	return err.Error()
}

// Cause returns the underlying cause of an error.
// It unwraps the error chain until it finds the root cause.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		underlying := unwrapper.Unwrap()
		if underlying == nil {
			return err
		}
		err = underlying
	}
}
