package models

import "errors"

// Общие ошибки хранилища
var (
	ErrNotFound = errors.New("resource not found")
)

// Ошибки движка прохождения. Все они - штатные отказы, которые уходят клиенту со стабильным кодом.
var (
	ErrStoryUnavailable       = errors.New("story is unavailable")
	ErrSheetUnavailable       = errors.New("sheet is unavailable")
	ErrStartSheetMissing      = errors.New("story has no valid start sheet")
	ErrSheetNotAccessible     = errors.New("sheet is not accessible")
	ErrAlreadySolved          = errors.New("sheet is already solved")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrStoryNotStarted        = errors.New("story has not been started")
	ErrTooManyAttempts        = errors.New("too many answer attempts")
	ErrBadRequest             = errors.New("bad request")
)

// Ошибки токенов
var (
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
)
