package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/gin-gonic/gin"
)

// 错误码，与通道协议中的 code 字段一一对应
const (
	CodeInvalidArguments = "INVALID_ARGUMENTS"
	CodePermissionError  = "PERMISSION_ERROR"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeContactNotFound  = "CONTACT_NOT_FOUND"
	CodeFetchError       = "FETCH_ERROR"
	CodeSearchError      = "SEARCH_ERROR"
	CodeCreateError      = "CREATE_ERROR"
	CodeUpdateError      = "UPDATE_ERROR"
	CodeDeleteError      = "DELETE_ERROR"
	CodeNoContext        = "NO_CONTEXT"
	CodeNoActivity       = "NO_ACTIVITY"
	CodeNotImplemented   = "NOT_IMPLEMENTED"
	CodeInternal         = "INTERNAL_ERROR"
)

var statusByCode = map[string]int{
	CodeInvalidArguments: http.StatusBadRequest,
	CodePermissionError:  http.StatusInternalServerError,
	CodePermissionDenied: http.StatusForbidden,
	CodeContactNotFound:  http.StatusNotFound,
	CodeFetchError:       http.StatusInternalServerError,
	CodeSearchError:      http.StatusInternalServerError,
	CodeCreateError:      http.StatusInternalServerError,
	CodeUpdateError:      http.StatusInternalServerError,
	CodeDeleteError:      http.StatusInternalServerError,
	CodeNoContext:        http.StatusServiceUnavailable,
	CodeNoActivity:       http.StatusServiceUnavailable,
	CodeNotImplemented:   http.StatusNotImplemented,
	CodeInternal:         http.StatusInternalServerError,
}

// Error 表示一次请求的结构化错误结果
type Error struct {
	Code      string   `json:"code"`                 // 错误码
	Message   string   `json:"message"`              // 错误消息
	Detail    string   `json:"details,omitempty"`    // 底层错误描述
	Cause     error    `json:"-"`                    // 原始错误
	Status    int      `json:"-"`                    // HTTP Code
	Stack     []string `json:"-"`                    // 错误堆栈
	RequestID string   `json:"request_id,omitempty"` // 请求ID，用于跟踪
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) String() string {
	return e.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithStack 添加堆栈信息到错误
func (e *Error) WithStack() *Error {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			stack = append(stack, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	e.Stack = stack
	return e
}

// WithDetail 覆盖 detail 字段
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

func (e *Error) WithRequestID(requestID string) *Error {
	e.RequestID = requestID
	return e
}

// New 创建新的错误，cause 的描述会保留在 Detail 中
func New(cause error, code string, message string) *Error {
	e := &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Status:  statusOfCode(code),
	}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

func Newf(cause error, code string, format string, args ...any) *Error {
	return New(cause, code, fmt.Sprintf(format, args...))
}

// Wrap 将任意错误转换为指定错误码的 *Error
// 已经是 *Error 的错误原样返回，避免覆盖下层给出的错误码
func Wrap(err error, code string, message string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return New(err, code, message).WithStack()
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is 检查错误链中是否存在指定错误码
func Is(err error, code string) bool {
	if e, ok := As(err); ok {
		return e.Code == code
	}
	return false
}

func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}

// StatusOf 获取错误的 HTTP 状态码
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if e, ok := As(err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}

func statusOfCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Err 在HTTP响应中返回错误
func Err(c *gin.Context, err error) {
	requestID := c.GetString("RequestID")

	e, ok := As(err)
	if !ok {
		e = New(err, CodeInternal, err.Error())
	}
	if requestID != "" {
		e.RequestID = requestID
	}
	c.JSON(e.Status, gin.H{"error": e})
}
