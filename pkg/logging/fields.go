package logging

import (
	"go.uber.org/zap"

	apperrors "github.com/muman613/nomad-helper/pkg/errors"
)

// ErrorFields describes err for a log entry: its code and category, whether
// a retry could succeed, and the root cause when it differs from err.
func ErrorFields(err error) []zap.Field {
	code := apperrors.GetErrorCode(err)
	fields := []zap.Field{
		zap.String("code", code),
		zap.String("category", string(apperrors.GetCategory(code))),
		zap.Bool("retryable", apperrors.ShouldRetry(err)),
		zap.String("message", apperrors.GetErrorMessage(err)),
	}
	if root := apperrors.Cause(err); root != nil && root != err {
		fields = append(fields, zap.NamedError("cause", root))
	}
	return fields
}
