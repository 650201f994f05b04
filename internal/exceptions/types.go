package exceptions

import "fmt"

const (
	CodeValidation = "validation"
	CodeNotFound   = "not_found"
	CodeConflict   = "conflict"
	CodeTransient  = "transient"
	CodeSystem     = "system"
)

type ServiceError struct {
	StatusCode int
	Code       string
	Retryable  bool
	Message    string
	Cause      error
}

func (se *ServiceError) Error() string {
	return se.Cause.Error()
}

func (se *ServiceError) Unwrap() error {
	return se.Cause
}

type RequestError interface {
	ToServiceError() *ServiceError
	Error() string
}

type ConflictError struct {
	Resource string
	Id       string
}

func (ce *ConflictError) Error() string {
	return fmt.Sprintf("Found conflicting %s with id: %s", ce.Resource, ce.Id)
}

func (ce *ConflictError) ToServiceError() *ServiceError {
	return &ServiceError{
		StatusCode: 409,
		Code:       CodeConflict,
		Message:    ce.Error(),
		Cause:      ce,
	}
}

func Conflict(resource string, id string) *ConflictError {
	return &ConflictError{
		Resource: resource,
		Id:       id,
	}
}

type NotFoundError struct {
	Resource string
	Id       string
}

func (nfe *NotFoundError) Error() string {
	return fmt.Sprintf("Could not find a %s with id: %s", nfe.Resource, nfe.Id)
}

func (nfe *NotFoundError) ToServiceError() *ServiceError {
	return &ServiceError{
		StatusCode: 404,
		Code:       CodeNotFound,
		Message:    nfe.Error(),
		Cause:      nfe,
	}
}

func NotFound(resource string, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Id:       id,
	}
}

type InvalidInputError struct {
	Message string
}

func (ie *InvalidInputError) Error() string {
	return ie.Message
}

func (ie *InvalidInputError) ToServiceError() *ServiceError {
	return &ServiceError{
		StatusCode: 400,
		Code:       CodeValidation,
		Message:    ie.Message,
		Cause:      ie,
	}
}

func InvalidInput(message string) *InvalidInputError {
	return &InvalidInputError{
		Message: message,
	}
}

type ThrottledError struct {
	Operation string
	Cause     error
}

func (te *ThrottledError) Error() string {
	return fmt.Sprintf("Operation %s was throttled: %s", te.Operation, te.Cause.Error())
}

func (te *ThrottledError) Unwrap() error {
	return te.Cause
}

func (te *ThrottledError) ToServiceError() *ServiceError {
	return &ServiceError{
		StatusCode: 429,
		Code:       CodeTransient,
		Retryable:  true,
		Message:    "The service is busy, please retry",
		Cause:      te,
	}
}

func Throttled(operation string, cause error) *ThrottledError {
	return &ThrottledError{
		Operation: operation,
		Cause:     cause,
	}
}

type InternalServerError struct {
	Message string
}

func (ise *InternalServerError) Error() string {
	return ise.Message
}

func (ise *InternalServerError) ToServiceError() *ServiceError {
	return &ServiceError{
		StatusCode: 500,
		Code:       CodeSystem,
		Message:    "Unexpected internal error",
		Cause:      ise,
	}
}

func InternalServer(message string) *InternalServerError {
	return &InternalServerError{
		Message: message,
	}
}
