// Package apperr はサービス層とHTTP層で共有するエラー分類を提供します。
package apperr

import (
	"errors"
	"net/http"
)

// Kind はエラーの分類を表します。HTTPレスポンスの code としてもそのまま使います。
type Kind string

const (
	KindValidation   Kind = "INVALID_INPUT"
	KindConflict     Kind = "CONFLICT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindNotFound     Kind = "NOT_FOUND"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Error は利用者に返却できるメッセージと内部原因を保持します。
// Message はレスポンスに載せてよい文言のみとし、原因は Err に入れます。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Validation は入力不備を表すエラーを作成します。
func Validation(message string) *Error {
	return newError(KindValidation, message, nil)
}

// Conflict は一意制約違反を表すエラーを作成します。
func Conflict(message string) *Error {
	return newError(KindConflict, message, nil)
}

// Unauthorized は認証情報の誤りやセッション不在を表すエラーを作成します。
func Unauthorized(message string) *Error {
	return newError(KindUnauthorized, message, nil)
}

// NotFound は対象が存在しない、または操作権限がないことを表すエラーを作成します。
// 両者は意図的に区別しません。
func NotFound(message string) *Error {
	return newError(KindNotFound, message, nil)
}

// Internal はストレージ障害などサーバー側の失敗を表すエラーを作成します。
func Internal(message string, cause error) *Error {
	return newError(KindInternal, message, cause)
}

// KindOf は err の分類を返します。分類不明なエラーは KindInternal として扱います。
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is は err が指定した分類かどうかを判定します。
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status は err に対応するHTTPステータスコードを返します。
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage はレスポンスに載せるメッセージを返します。
// 分類不明なエラーの詳細は外部に出しません。
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Internal server error"
}
