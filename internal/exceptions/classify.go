package exceptions

import (
	"errors"
	"net"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

var _throttleCodes = map[string]bool{
	"ThrottlingException":                    true,
	"ProvisionedThroughputExceededException": true,
	"RequestLimitExceeded":                   true,
	"LimitExceededException":                 true,
}

var _transientCodes = map[string]bool{
	"InternalServerError":     true,
	"ServiceUnavailable":      true,
	"TransactionConflict":     true,
	"RequestTimeout":          true,
	"RequestTimeoutException": true,
}

// Classify is the single translation point between the backing store's
// native error shapes and the taxonomy the rest of the system speaks.
// No other component inspects raw store errors.
func Classify(err error, operation string) *ServiceError {
	if err == nil {
		return nil
	}
	var request RequestError
	if errors.As(err, &request) {
		return request.ToServiceError()
	}
	var service *ServiceError
	if errors.As(err, &service) {
		return service
	}
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return &ServiceError{
			StatusCode: 409,
			Code:       CodeConflict,
			Message:    "A conditional check failed on " + operation,
			Cause:      err,
		}
	}
	var api smithy.APIError
	if errors.As(err, &api) {
		code := api.ErrorCode()
		switch {
		case _throttleCodes[code]:
			return Throttled(operation, err).ToServiceError()
		case _transientCodes[code]:
			return &ServiceError{
				StatusCode: 503,
				Code:       CodeTransient,
				Retryable:  true,
				Message:    "The service is busy, please retry",
				Cause:      err,
			}
		case code == "ValidationException" || code == "SerializationException":
			return &ServiceError{
				StatusCode: 400,
				Code:       CodeValidation,
				Message:    api.ErrorMessage(),
				Cause:      err,
			}
		default:
			return &ServiceError{
				StatusCode: 500,
				Code:       CodeSystem,
				Message:    "Unexpected internal error",
				Cause:      err,
			}
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ServiceError{
			StatusCode: 503,
			Code:       CodeTransient,
			Retryable:  true,
			Message:    "The service timed out, please retry",
			Cause:      err,
		}
	}
	if strings.Contains(err.Error(), "connection reset") {
		return &ServiceError{
			StatusCode: 503,
			Code:       CodeTransient,
			Retryable:  true,
			Message:    "The connection was interrupted, please retry",
			Cause:      err,
		}
	}
	return &ServiceError{
		StatusCode: 500,
		Code:       CodeSystem,
		Message:    "Unexpected internal error",
		Cause:      err,
	}
}

func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err, "retry").Retryable
}
