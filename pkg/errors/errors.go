package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base interface for all application errors
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// NotFoundError represents a resource that was not found
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

func (e *NotFoundError) Code() string {
	return "NOT_FOUND"
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents invalid or internally inconsistent input
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *ValidationError) Code() string {
	return "VALIDATION_ERROR"
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NoEligibleAssigneeError indicates a step's required role has no holders
type NoEligibleAssigneeError struct {
	RoleID string
}

func (e *NoEligibleAssigneeError) Error() string {
	return fmt.Sprintf("no eligible assignee found for role '%s'", e.RoleID)
}

func (e *NoEligibleAssigneeError) HTTPStatus() int {
	return http.StatusUnprocessableEntity
}

func (e *NoEligibleAssigneeError) Code() string {
	return "NO_ELIGIBLE_ASSIGNEE"
}

// NewNoEligibleAssigneeError creates a new NoEligibleAssigneeError
func NewNoEligibleAssigneeError(roleID string) *NoEligibleAssigneeError {
	return &NoEligibleAssigneeError{RoleID: roleID}
}

// UnauthorizedActionError indicates the actor is not the current assignee
type UnauthorizedActionError struct {
	InstanceID string
	UserID     string
}

func (e *UnauthorizedActionError) Error() string {
	return fmt.Sprintf("user '%s' is not the current assignee of instance '%s'", e.UserID, e.InstanceID)
}

func (e *UnauthorizedActionError) HTTPStatus() int {
	return http.StatusForbidden
}

func (e *UnauthorizedActionError) Code() string {
	return "UNAUTHORIZED_ACTION"
}

// NewUnauthorizedActionError creates a new UnauthorizedActionError
func NewUnauthorizedActionError(instanceID, userID string) *UnauthorizedActionError {
	return &UnauthorizedActionError{InstanceID: instanceID, UserID: userID}
}

// InstanceClosedError indicates an action against a COMPLETED/REJECTED instance
type InstanceClosedError struct {
	InstanceID string
	Status     string
}

func (e *InstanceClosedError) Error() string {
	return fmt.Sprintf("workflow instance '%s' is closed (status %s)", e.InstanceID, e.Status)
}

func (e *InstanceClosedError) HTTPStatus() int {
	return http.StatusConflict
}

func (e *InstanceClosedError) Code() string {
	return "INSTANCE_CLOSED"
}

// NewInstanceClosedError creates a new InstanceClosedError
func NewInstanceClosedError(instanceID, status string) *InstanceClosedError {
	return &InstanceClosedError{InstanceID: instanceID, Status: status}
}

// ForbiddenActionError indicates an action type the current step does not permit
type ForbiddenActionError struct {
	StepID string
	Action string
}

func (e *ForbiddenActionError) Error() string {
	return fmt.Sprintf("action %s is not permitted at step '%s'", e.Action, e.StepID)
}

func (e *ForbiddenActionError) HTTPStatus() int {
	return http.StatusForbidden
}

func (e *ForbiddenActionError) Code() string {
	return "FORBIDDEN_ACTION"
}

// NewForbiddenActionError creates a new ForbiddenActionError
func NewForbiddenActionError(stepID, action string) *ForbiddenActionError {
	return &ForbiddenActionError{StepID: stepID, Action: action}
}

// ConcurrencyConflictError indicates contention on the same instance
type ConcurrencyConflictError struct {
	Resource string
	ID       string
	Cause    error
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrent modification of %s '%s', retry the operation", e.Resource, e.ID)
}

func (e *ConcurrencyConflictError) HTTPStatus() int {
	return http.StatusConflict
}

func (e *ConcurrencyConflictError) Code() string {
	return "CONCURRENCY_CONFLICT"
}

func (e *ConcurrencyConflictError) Unwrap() error {
	return e.Cause
}

// NewConcurrencyConflictError creates a new ConcurrencyConflictError
func NewConcurrencyConflictError(resource, id string, cause error) *ConcurrencyConflictError {
	return &ConcurrencyConflictError{Resource: resource, ID: id, Cause: cause}
}

// UnauthorizedError represents authentication failures at the HTTP boundary
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unauthorized: %s", e.Reason)
	}
	return "unauthorized"
}

func (e *UnauthorizedError) HTTPStatus() int {
	return http.StatusUnauthorized
}

func (e *UnauthorizedError) Code() string {
	return "UNAUTHORIZED"
}

// NewUnauthorizedError creates a new UnauthorizedError
func NewUnauthorizedError(reason string) *UnauthorizedError {
	return &UnauthorizedError{Reason: reason}
}

// InternalError represents unexpected server errors; storage errors are
// wrapped here so driver details never leak through the API
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s (caused by: %v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *InternalError) Code() string {
	return "INTERNAL_ERROR"
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{Message: message, Cause: cause}
}

// Helper functions for error checking

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

// IsNoEligibleAssignee checks if an error is a NoEligibleAssigneeError
func IsNoEligibleAssignee(err error) bool {
	var noAssignee *NoEligibleAssigneeError
	return errors.As(err, &noAssignee)
}

// IsUnauthorizedAction checks if an error is an UnauthorizedActionError
func IsUnauthorizedAction(err error) bool {
	var unauthorized *UnauthorizedActionError
	return errors.As(err, &unauthorized)
}

// IsInstanceClosed checks if an error is an InstanceClosedError
func IsInstanceClosed(err error) bool {
	var closed *InstanceClosedError
	return errors.As(err, &closed)
}

// IsForbiddenAction checks if an error is a ForbiddenActionError
func IsForbiddenAction(err error) bool {
	var forbidden *ForbiddenActionError
	return errors.As(err, &forbidden)
}

// IsConcurrencyConflict checks if an error is a ConcurrencyConflictError
func IsConcurrencyConflict(err error) bool {
	var conflict *ConcurrencyConflictError
	return errors.As(err, &conflict)
}

// GetHTTPStatus returns the HTTP status code for an error
// Returns 500 if the error doesn't implement AppError
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetErrorCode returns the error code for an error
// Returns "UNKNOWN_ERROR" if the error doesn't implement AppError
func GetErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "UNKNOWN_ERROR"
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ToResponse converts an error to an ErrorResponse
func ToResponse(err error) ErrorResponse {
	return ErrorResponse{
		Code:    GetErrorCode(err),
		Message: err.Error(),
	}
}
