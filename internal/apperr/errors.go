// Package apperr defines the uniform application error shape shared by the
// quote pipeline and its HTTP translation layer.
package apperr

import (
	"errors"
	"net/http"
)

// Kind tags the pipeline-level failure category so the HTTP layer can map
// status codes without string matching on messages.
type Kind string

const (
	KindOracleUnavailable              Kind = "oracle_unavailable"
	KindRouteUnavailable                Kind = "route_unavailable"
	KindDispensationExceedsIntermediate Kind = "dispensation_exceeds_intermediate"
	KindTribunalRpcError                Kind = "tribunal_rpc_error"
	KindUnsupportedChain                Kind = "unsupported_chain"
	KindUnsupportedTribunalChain        Kind = "unsupported_tribunal_chain"
	KindNoArbiterForChainPair           Kind = "no_arbiter_for_chain_pair"
	KindInvalidLockParameters           Kind = "invalid_lock_parameters"
	KindExpiresOrderViolation           Kind = "expires_order_violation"
	KindWitnessTypeParseError           Kind = "witness_type_parse_error"
	KindMissingWitnessField             Kind = "missing_witness_field"
	KindCompactIdFieldOverflow          Kind = "compact_id_field_overflow"
	KindSchemaViolation                 Kind = "schema_violation"
	KindInternal                        Kind = "internal_error"
)

// Domain sentinel errors. The AppErrors built by NewKindError do not wrap
// them, so errors.Is against one of these does not match a Kind-tagged error.
var (
	ErrOracleUnavailable   = errors.New("oracle unavailable")
	ErrRouteUnavailable    = errors.New("route unavailable")
	ErrTribunalRpcError    = errors.New("tribunal rpc error")
	ErrUnsupportedChain    = errors.New("unsupported chain")
)

// AppError is the application-wide error envelope: an HTTP status, a stable
// machine-readable code, a human message, and the pipeline Kind (when the
// error originated in the quote pipeline) driving the status mapping.
type AppError struct {
	Status  int
	Code    string
	Message string
	Kind    Kind
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError builds an AppError with an explicit status/code/message/cause.
func NewAppError(status int, code string, message string, err error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

// NewKindError builds an AppError from a pipeline Kind, applying the status
// mapping from the error-handling taxonomy (§7).
func NewKindError(kind Kind, message string, err error) *AppError {
	return &AppError{Status: statusForKind(kind), Code: string(kind), Message: message, Kind: kind, Err: err}
}

func statusForKind(kind Kind) int {
	switch kind {
	case KindUnsupportedChain,
		KindNoArbiterForChainPair,
		KindInvalidLockParameters,
		KindExpiresOrderViolation,
		KindWitnessTypeParseError,
		KindMissingWitnessField,
		KindSchemaViolation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors, matching the teacher's naming convention.

func BadRequest(code, message string) *AppError {
	return NewAppError(http.StatusBadRequest, code, message, nil)
}

func NotFound(code, message string) *AppError {
	return NewAppError(http.StatusNotFound, code, message, nil)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "internal_error", "internal server error", err)
}

func InternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, "internal_error", message, nil)
}

// NewError wraps an existing error with a message under a 400, matching the
// teacher's `NewError` convenience constructor.
func NewError(message string, err error) error {
	return &AppError{Status: http.StatusBadRequest, Code: "bad_request", Message: message, Err: err}
}

// As reports whether err is an *AppError, unwrapping through wrapped causes.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
