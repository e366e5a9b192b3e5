package apperror

import (
	"errors"
	"fmt"
)

type Code string

// 後端回傳的錯誤碼
const (
	InsufficientStockCode Code = "INSUFFICIENT_STOCK"
	PaymentFailedCode     Code = "PAYMENT_FAILED"
	InvalidSlotCode       Code = "INVALID_SLOT"
	UnauthorizedCode      Code = "UNAUTHORIZED"
	ForbiddenCode         Code = "FORBIDDEN"
	ValidationErrorCode   Code = "VALIDATION_ERROR"
	NotFoundCode          Code = "NOT_FOUND"
	ConflictCode          Code = "CONFLICT"
	InternalErrorCode     Code = "INTERNAL_ERROR"
	RateLimitedCode       Code = "RATE_LIMITED"
)

// 前端自行產生的錯誤碼
const (
	LoginRequiredCode Code = "LOGIN_REQUIRED"
	OutOfStockCode    Code = "OUT_OF_STOCK"
	StockLimitCode    Code = "STOCK_LIMIT"
	CartNotReadyCode  Code = "CART_NOT_READY"
	InvalidStepCode   Code = "INVALID_STEP"
)

// Error 所有 api 與 client 端錯誤的統一型別
type Error struct {
	Status  int            `json:"status,omitempty"`
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is 以 code 比對，讓 errors.Is(err, apperror.New(code, "")) 可用
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New message 為空時使用預設訊息表
func New(code Code, message string) *Error {
	if message == "" {
		message = FallbackMessage(code)
	}
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, cause error) *Error {
	e := New(code, "")
	e.cause = cause
	return e
}

// FromResponse 由 http 回應組成錯誤
// code 缺少時預設 INTERNAL_ERROR，message 缺少時使用預設訊息表
func FromResponse(status int, code, message string, details map[string]any) *Error {
	c := Code(code)
	if c == "" {
		c = InternalErrorCode
	}
	e := New(c, message)
	e.Status = status
	e.Details = details
	return e
}

// CodeOf 非 *Error 一律視為 INTERNAL_ERROR
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalErrorCode
}

// IsCode 判斷錯誤鏈中是否有指定 code
func IsCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// UserMessage 給使用者看的訊息
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		return FallbackMessage(e.Code)
	}
	return FallbackMessage(InternalErrorCode)
}
