package errors_test

import (
	"fmt"

	"github.com/muman613/nomad-helper/pkg/errors"
)

// Example demonstrates classifying a raw client error.
func ExampleClassify() {
	raw := fmt.Errorf("dial tcp 10.13.0.6:4646: connect: connection refused")
	err := errors.Classify(raw, errors.Op{Name: "list jobs", Address: "https://10.13.0.6:4646"})

	fmt.Println(errors.GetErrorCode(err))
	fmt.Println("Should retry:", errors.ShouldRetry(err))
	// Output:
	// CONNECTION_ERROR
	// Should retry: true
}

// Example demonstrates wrapping errors with context.
func ExampleWrap() {
	originalErr := errors.NewNotFoundError("allocation", "8f2c")
	wrappedErr := errors.Wrap(originalErr, "failed to fetch task log")

	fmt.Println(wrappedErr.Error())
	fmt.Println("Is NotFound:", errors.IsNotFound(wrappedErr))
	// Output:
	// failed to fetch task log: allocation with ID '8f2c' not found
	// Is NotFound: true
}
