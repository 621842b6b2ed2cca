package apperr

import "github.com/tuanvumaihuynh/product-inventory/pkg/zerror"

const (
	ValidationErrorCode       = "VALIDATION_FAILED"
	ProductNotFoundErrorCode  = "PRODUCT_NOT_FOUND"
	SkuTakenErrorCode         = "SKU_TAKEN"
	ConflictErrorCode         = "CONFLICT"
	StockUpdateFailedCode     = "STOCK_UPDATE_FAILED"
	ProductDeleteFailedCode   = "PRODUCT_DELETE_FAILED"
	InvalidStockMovementCode  = "INVALID_STOCK_MOVEMENT"
	InvalidStockQtyCode       = "INVALID_STOCK_QTY"
	InternalServerErrorCode   = "INTERNAL_SERVER_ERROR"
	RouteNotFoundErrorCode    = "ROUTE_NOT_FOUND"
	MethodNotAllowedErrorCode = "METHOD_NOT_ALLOWED"
	DatabaseUnavailableCode   = "DATABASE_UNAVAILABLE"
	PayloadTooLargeCode       = "PAYLOAD_TOO_LARGE"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode,
		"Invalid data was entered.")
	ProductNotFoundErr = zerror.NewNotFound(ProductNotFoundErrorCode,
		"The requested operation failed because a resource associated with the request could not be found.")
	SkuTakenErr = zerror.NewValidationFailed(SkuTakenErrorCode,
		"The sku has already been taken.")
	ConflictErr = zerror.NewConflict(ConflictErrorCode,
		"The request could not be completed due to a conflict with the current state of the target resource.")
	StockUpdateFailedErr = zerror.NewInternalServerError(StockUpdateFailedCode,
		"The stock could not be updated.")
	ProductDeleteFailedErr = zerror.NewInternalServerError(ProductDeleteFailedCode,
		"The product could not be deleted.")
	InvalidStockMovementErr = zerror.NewValidationFailed(InvalidStockMovementCode,
		"The selected type is invalid.")
	InvalidStockQtyErr = zerror.NewValidationFailed(InvalidStockQtyCode,
		"The qty must be at least 1.")
	InternalServerErr = zerror.NewInternalServerError(InternalServerErrorCode,
		"The request failed due to an internal error.")
	RouteNotFoundErr = zerror.NewNotFound(RouteNotFoundErrorCode,
		"Resource not found.")
	MethodNotAllowedErr = zerror.NewMethodNotAllowed(MethodNotAllowedErrorCode,
		"The method is not supported for this route.")
	DatabaseUnavailableErr = zerror.NewServiceUnavailable(DatabaseUnavailableCode,
		"The database is unavailable.")
	PayloadTooLargeErr = zerror.NewPayloadTooLarge(PayloadTooLargeCode,
		"The request body is too large.")
)

// fields maps validation errors raised by the services to the request field
// they concern.
var fields = map[string]string{
	SkuTakenErrorCode:        "sku",
	InvalidStockMovementCode: "type",
	InvalidStockQtyCode:      "qty",
}

// Field returns the request field a validation error belongs to.
func Field(err zerror.ZError) (string, bool) {
	field, ok := fields[err.Code()]
	return field, ok
}
