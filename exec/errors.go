package exec

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrorKind classifies a DynamoDB API failure for retry and reporting
// purposes (spec.md §4.5, §7).
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindThrottled
	KindServerError
	KindValidationError
	KindConditionalCheckFailed
	KindResourceNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindThrottled:
		return "Throttled"
	case KindServerError:
		return "ServerError"
	case KindValidationError:
		return "ValidationError"
	case KindConditionalCheckFailed:
		return "ConditionalCheckFailed"
	case KindResourceNotFound:
		return "ResourceNotFound"
	default:
		return "Other"
	}
}

// Error wraps a failed DynamoDB call with its retry classification.
type Error struct {
	Cause     error
	Operation string
	Kind      ErrorKind
	Retryable bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("exec: %s failed (%s): %v", e.Operation, e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// classify maps an AWS SDK error into an *Error with its retry
// classification, mirroring the throttling/5xx/4xx split spec.md §4.5
// requires of the backoff policy.
func classify(operation string, err error) *Error {
	if err == nil {
		return nil
	}

	var condFailed *types.ConditionalCheckFailedException
	if errors.As(err, &condFailed) {
		return &Error{Operation: operation, Cause: err, Kind: KindConditionalCheckFailed, Retryable: false}
	}

	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return &Error{Operation: operation, Cause: err, Kind: KindResourceNotFound, Retryable: false}
	}

	var throttled *types.ProvisionedThroughputExceededException
	var requestLimit *types.RequestLimitExceeded
	if errors.As(err, &throttled) || errors.As(err, &requestLimit) {
		return &Error{Operation: operation, Cause: err, Kind: KindThrottled, Retryable: true}
	}

	var internal *types.InternalServerError
	if errors.As(err, &internal) {
		return &Error{Operation: operation, Cause: err, Kind: KindServerError, Retryable: true}
	}

	var validation *types.ValidationException
	if errors.As(err, &validation) {
		return &Error{Operation: operation, Cause: err, Kind: KindValidationError, Retryable: false}
	}

	return &Error{Operation: operation, Cause: err, Kind: KindOther, Retryable: false}
}
