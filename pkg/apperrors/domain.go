package apperrors

import (
	"net/http"
)

/*
Фабрики и предопределенные переменные для ошибок домена чата.

Запрет доступа и "не найдено" намеренно отдают один и тот же ответ:
клиент не должен по коду ответа узнавать о существовании комнаты или
сообщения, к которым у него нет доступа.
*/

// ErrForbidden - общий запрет доступа. Используется и там, где ресурс
// отсутствует, чтобы не раскрывать его существование.
var ErrForbidden = New(
	CodeForbidden,
	"chat",
	"You do not have permission to perform this action",
	http.StatusForbidden,
)

// ErrNotFound - фабрика для преобразования gorm.ErrRecordNotFound и
// подобных ошибок репозитория.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "chat", "Resource not found", http.StatusNotFound)
}

// ErrRoomNotEmpty - комнату нельзя удалить, пока в ней есть сообщения.
func ErrRoomNotEmpty() *AppError {
	return New(CodeConflict, "chat", "Room still contains messages", http.StatusConflict)
}

// ErrPairRoomFixed - состав парной комнаты задаётся при создании и не
// расширяется.
func ErrPairRoomFixed() *AppError {
	return New(CodeConflict, "chat", "Pair room membership is fixed", http.StatusConflict)
}

// --- Аутентификация на рукопожатии ---

var (
	ErrCredentialMissing   = New(CodeUnauthorized, "auth", "Authorization credential missing", http.StatusUnauthorized)
	ErrCredentialMalformed = New(CodeInvalidToken, "auth", "Authorization credential malformed", http.StatusUnauthorized)
	ErrSignatureInvalid    = New(CodeInvalidToken, "auth", "Token signature invalid", http.StatusUnauthorized)
	ErrTokenExpired        = New(CodeTokenExpired, "auth", "Token expired", http.StatusUnauthorized)
	ErrUnknownSubject      = New(CodeUnauthorized, "auth", "Token subject unknown", http.StatusUnauthorized)
)
