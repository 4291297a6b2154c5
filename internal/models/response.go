package models

// Стабильные коды ошибок API.
const (
	ErrCodeStoryUnavailable       = "story_unavailable"
	ErrCodeSheetUnavailable       = "sheet_unavailable"
	ErrCodeStartSheetMissing      = "start_sheet_missing"
	ErrCodeSheetNotAccessible     = "sheet_not_accessible"
	ErrCodeAlreadySolved          = "already_solved"
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodeStoryNotStarted        = "story_not_started"
	ErrCodeTooManyAttempts        = "too_many_attempts"
	ErrCodeBadRequest             = "bad_request"
	ErrCodeInternal               = "internal_error"
)

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
