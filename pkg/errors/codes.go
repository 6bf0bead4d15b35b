package errors

// Error codes for categorizing errors.
const (
	// CodeOK indicates success (not an error).
	CodeOK = "OK"

	// CodeUnknown indicates an error that was never classified.
	CodeUnknown = "UNKNOWN"

	// CodeCancelled indicates the run's context was cancelled.
	CodeCancelled = "CANCELLED"

	// CodeNotFound indicates a job, allocation or task was not found.
	CodeNotFound = "NOT_FOUND"

	// CodeValidation indicates configuration validation failed.
	CodeValidation = "VALIDATION_ERROR"

	// CodeConnection indicates the API endpoint could not be reached.
	CodeConnection = "CONNECTION_ERROR"

	// CodeCertificate indicates the TLS material was unusable or rejected.
	CodeCertificate = "CERTIFICATE_ERROR"

	// CodeTransport indicates an unexpected API response.
	CodeTransport = "TRANSPORT_ERROR"
)

// ErrorCategory represents a high-level error category.
type ErrorCategory string

const (
	// CategoryClient indicates the request named something that does not exist
	// or the tool was configured wrongly.
	CategoryClient ErrorCategory = "CLIENT_ERROR"

	// CategoryNetwork indicates the cluster could not be reached.
	CategoryNetwork ErrorCategory = "NETWORK_ERROR"

	// CategoryAuth indicates a TLS identity problem.
	CategoryAuth ErrorCategory = "AUTH_ERROR"

	// CategoryServer indicates the cluster answered with a failure.
	CategoryServer ErrorCategory = "SERVER_ERROR"
)

// GetCategory returns the category for an error code.
func GetCategory(code string) ErrorCategory {
	switch code {
	case CodeNotFound, CodeValidation, CodeCancelled:
		return CategoryClient
	case CodeConnection:
		return CategoryNetwork
	case CodeCertificate:
		return CategoryAuth
	default:
		return CategoryServer
	}
}

// IsRetryable returns true if an error with the given code could succeed
// when attempted again unchanged.
func IsRetryable(code string) bool {
	switch code {
	case CodeConnection, CodeTransport:
		return true
	default:
		return false
	}
}
