package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101

	// Roster errors (200-299)
	ErrCodeRosterNotFound      ErrorCode = 200
	ErrCodeRosterParseFailed   ErrorCode = 201
	ErrCodeRosterMissingColumn ErrorCode = 202
	ErrCodeRosterEmpty         ErrorCode = 203

	// Market data errors (300-399)
	ErrCodeFetchFailed          ErrorCode = 300
	ErrCodeResponseParseFailed  ErrorCode = 301
	ErrCodeInvalidProvider      ErrorCode = 302
	ErrCodeProviderUnavailable  ErrorCode = 303
	ErrCodeSymbolPipelineFailed ErrorCode = 304
	ErrCodeNoDataFetched        ErrorCode = 305
	ErrCodeInvalidWindow        ErrorCode = 306

	// Writer errors (400-499)
	ErrCodeWriterInitFailed     ErrorCode = 400
	ErrCodeWriteFailed          ErrorCode = 401
	ErrCodeWriterFinalizeFailed ErrorCode = 402
	ErrCodeInvalidWriter        ErrorCode = 403
)
