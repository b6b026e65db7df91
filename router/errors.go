package router

var (

	// ErrInvalidData is sent when a value in request is invalid
	ErrInvalidData = "INVALID_DATA"
	// ErrInternal is send when a internal server error occurs.
	ErrInternal = "INTERNAL_ERROR"
	// ErrParsing is sent when an error occurs in parsing the request
	ErrParsing = "PARSING_ERROR"
	// ErrNotFound is sent when the requested resource or a required value is missing
	ErrNotFound = "NOT_FOUND"

	// ErrTimeout is sent when a request's context deadline is exceeded or if it is canceled
	ErrTimeout = "TIMEOUT"

	// ErrUnauthorized is sent when the session token is missing, invalid or revoked
	ErrUnauthorized = "UNAUTHORIZED"
	// ErrForbidden is sent when the caller may not touch the resource
	ErrForbidden = "FORBIDDEN"
	// ErrConflict is sent when the request clashes with existing data
	ErrConflict = "CONFLICT"

	ErrTooLarge        = "TOO_LARGE"
	ErrUnsupportedType = "UNSUPPORTED_TYPE"
)
