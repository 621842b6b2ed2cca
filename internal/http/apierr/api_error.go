package apierr

import (
	"errors"
	"fmt"
	"net/http"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/tuanvumaihuynh/product-inventory/internal/apperr"
	"github.com/tuanvumaihuynh/product-inventory/internal/http/response"
	"github.com/tuanvumaihuynh/product-inventory/pkg/validator"
	"github.com/tuanvumaihuynh/product-inventory/pkg/zerror"
)

// ErrorResponse is the error response for the API.
type ErrorResponse struct {
	response.Envelope

	// StatusCode is the status code for the error response.
	StatusCode int `json:"-"`
}

// Response converts e for response.Write.
func (e ErrorResponse) Response() response.Response {
	return response.Response{StatusCode: e.StatusCode, Body: &e.Envelope}
}

// InvalidParamError reports a path or query parameter that could not be
// bound.
type InvalidParamError struct {
	Param string
	Err   error
}

func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %v", e.Param, e.Err)
}

func (e *InvalidParamError) Unwrap() error {
	return e.Err
}

// New maps err to a response. With debug set, internal errors carry err's
// text in messages.
func New(err error, debug bool) ErrorResponse {
	res := errorToErrorResponse(err)
	if debug && res.StatusCode >= http.StatusInternalServerError {
		res.Messages = []string{err.Error()}
	}
	return res
}

var InternalServerErr = ErrorResponse{
	Envelope: response.Envelope{
		Message: response.MsgInternalServerError,
	},
	StatusCode: http.StatusInternalServerError,
}

func errorToErrorResponse(err error) ErrorResponse {
	var zErr zerror.ZError
	if errors.As(err, &zErr) {
		res := ErrorResponse{
			Envelope:   response.Envelope{Message: zErr.Msg()},
			StatusCode: ZErrorStatusToHTTPStatus(zErr.Status()),
		}
		if field, ok := apperr.Field(zErr); ok {
			res.Errors = map[string][]string{field: {zErr.Msg()}}
		}
		return res
	}

	var validationErrs govalidator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make(map[string][]string, len(validationErrs))
		for _, fe := range validationErrs {
			path := validator.FieldPath(fe)
			fields[path] = append(fields[path], validator.ValidationErrorMessage(fe))
		}

		return ErrorResponse{
			Envelope: response.Envelope{
				Message: response.MsgInvalid,
				Errors:  fields,
			},
			StatusCode: http.StatusUnprocessableEntity,
		}
	}

	var paramErr *InvalidParamError
	if errors.As(err, &paramErr) {
		return ErrorResponse{
			Envelope: response.Envelope{
				Message: response.MsgInvalid,
				Errors:  map[string][]string{paramErr.Param: {"is invalid"}},
			},
			StatusCode: http.StatusUnprocessableEntity,
		}
	}

	return InternalServerErr
}

func ZErrorStatusToHTTPStatus(status zerror.Status) int {
	switch status {
	case zerror.StatusUnauthorized:
		return http.StatusUnauthorized
	case zerror.StatusForbidden:
		return http.StatusForbidden
	case zerror.StatusNotFound:
		return http.StatusNotFound
	case zerror.StatusMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case zerror.StatusPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case zerror.StatusUnprocessableEntity, zerror.StatusValidationFailed:
		return http.StatusUnprocessableEntity
	case zerror.StatusConflict:
		return http.StatusConflict
	case zerror.StatusTooManyRequests:
		return http.StatusTooManyRequests
	case zerror.StatusBadRequest:
		return http.StatusBadRequest
	case zerror.StatusUnknown, zerror.StatusInternalServerError:
		return http.StatusInternalServerError
	case zerror.StatusTimeout:
		return http.StatusGatewayTimeout
	case zerror.StatusNotImplemented:
		return http.StatusNotImplemented
	case zerror.StatusBadGateway:
		return http.StatusBadGateway
	case zerror.StatusServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
