package response

const (
	MsgProductCreated = "The product was successfully added."
	MsgProductUpdated = "The product has been successfully updated."
	MsgStockUpdated   = "The stock has been successfully updated."

	MsgInvalid             = "Invalid data was entered."
	MsgNotFound            = "Resource not found."
	MsgMethodNotAllowed    = "The method is not supported for this route."
	MsgInternalServerError = "Internal server error. Please try again later."
)
