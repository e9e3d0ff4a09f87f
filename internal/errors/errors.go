package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown          ErrorCode = 1000
	ErrInvalidParam     ErrorCode = 1001
	ErrNotFound         ErrorCode = 1002
	ErrAlreadyExists    ErrorCode = 1003
	ErrPermissionDenied ErrorCode = 1004
	ErrTimeout          ErrorCode = 1005
	ErrCanceled         ErrorCode = 1006
	ErrNotImplemented   ErrorCode = 1007

	// 对局错误 (2000-2999)
	ErrInvalidMove    ErrorCode = 2000
	ErrNotYourTurn    ErrorCode = 2001
	ErrCellOccupied   ErrorCode = 2002
	ErrGameFinished   ErrorCode = 2003
	ErrGameStateError ErrorCode = 2004
	ErrNotParticipant ErrorCode = 2005
	ErrGameNotStarted ErrorCode = 2006
	ErrRoomFull       ErrorCode = 2007

	// 通信错误 (4000-4999)
	ErrWebSocketConnect ErrorCode = 4000
	ErrWebSocketSend    ErrorCode = 4001
	ErrWebSocketReceive ErrorCode = 4002
	ErrWebSocketClosed  ErrorCode = 4003
	ErrRegistry         ErrorCode = 4004
	ErrMessageFormat    ErrorCode = 4007

	// 数据库错误 (5000-5999)
	ErrDatabaseConnect ErrorCode = 5000
	ErrDatabaseQuery   ErrorCode = 5001
	ErrDatabaseInsert  ErrorCode = 5002
	ErrDatabaseUpdate  ErrorCode = 5003
	ErrDatabaseDelete  ErrorCode = 5004
	ErrTransaction     ErrorCode = 5005
	ErrDataIntegrity   ErrorCode = 5006

	// 配置错误 (6000-6999)
	ErrConfigLoad     ErrorCode = 6000
	ErrConfigParse    ErrorCode = 6001
	ErrConfigValidate ErrorCode = 6002
	ErrConfigMissing  ErrorCode = 6003

	// 安全错误 (7000-7999)
	ErrAuthentication    ErrorCode = 7000
	ErrAuthorization     ErrorCode = 7001
	ErrTokenExpired      ErrorCode = 7002
	ErrTokenInvalid      ErrorCode = 7003
	ErrRateLimitExceeded ErrorCode = 7004
)

// 错误码消息映射
var errorMessages = map[ErrorCode]string{
	// 通用错误
	ErrUnknown:          "未知错误",
	ErrInvalidParam:     "无效的参数",
	ErrNotFound:         "资源未找到",
	ErrAlreadyExists:    "资源已存在",
	ErrPermissionDenied: "权限不足",
	ErrTimeout:          "操作超时",
	ErrCanceled:         "操作已取消",
	ErrNotImplemented:   "功能未实现",

	// 对局错误
	ErrInvalidMove:    "无效的落子",
	ErrNotYourTurn:    "未轮到该玩家",
	ErrCellOccupied:   "该位置已有棋子",
	ErrGameFinished:   "对局已结束",
	ErrGameStateError: "对局状态错误",
	ErrNotParticipant: "不是对局参与者",
	ErrGameNotStarted: "对局未开始",
	ErrRoomFull:       "房间已满",

	// 通信错误
	ErrWebSocketConnect: "WebSocket连接失败",
	ErrWebSocketSend:    "WebSocket发送失败",
	ErrWebSocketReceive: "WebSocket接收失败",
	ErrWebSocketClosed:  "WebSocket连接已关闭",
	ErrRegistry:         "会话注册表操作失败",
	ErrMessageFormat:    "消息格式错误",

	// 数据库错误
	ErrDatabaseConnect: "数据库连接失败",
	ErrDatabaseQuery:   "数据库查询失败",
	ErrDatabaseInsert:  "数据库插入失败",
	ErrDatabaseUpdate:  "数据库更新失败",
	ErrDatabaseDelete:  "数据库删除失败",
	ErrTransaction:     "事务处理失败",
	ErrDataIntegrity:   "数据完整性错误",

	// 配置错误
	ErrConfigLoad:     "配置加载失败",
	ErrConfigParse:    "配置解析失败",
	ErrConfigValidate: "配置验证失败",
	ErrConfigMissing:  "配置项缺失",

	// 安全错误
	ErrAuthentication:    "认证失败",
	ErrAuthorization:     "授权失败",
	ErrTokenExpired:      "令牌已过期",
	ErrTokenInvalid:      "无效的令牌",
	ErrRateLimitExceeded: "请求频率超限",
}

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details"`
	Cause   error        `json:"-"`
	Stack   []StackFrame `json:"stack,omitempty"`
}

// StackFrame 调用栈帧
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因错误
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	if cause != nil && e.Details == "" {
		e.Details = cause.Error()
	}
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	err.captureStack(2)

	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 包装错误，已经是AppError时保留原始错误码
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	wrapped := New(code, details...)
	wrapped.Cause = err
	if wrapped.Details == "" {
		wrapped.Details = err.Error()
	}

	return wrapped
}

// Wrapf 包装格式化错误
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Is 判断错误链中是否有指定错误码
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}

	return ErrUnknown
}

// Details 返回错误详情，非AppError时返回Error()
func Details(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Details != "" {
		return appErr.Details
	}
	return err.Error()
}

// captureStack 捕获调用栈
func (e *AppError) captureStack(skip int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()

		// 跳过runtime和本包的调用
		if strings.Contains(frame.Function, "runtime.") ||
			strings.Contains(frame.Function, "github.com/wfunc/tictactoe/internal/errors") {
			if !more {
				break
			}
			continue
		}

		e.Stack = append(e.Stack, StackFrame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})

		if !more || len(e.Stack) >= 10 {
			break
		}
	}
}

// GetStack 获取格式化的调用栈
func (e *AppError) GetStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, frame := range e.Stack {
		builder.WriteString(fmt.Sprintf("%d. %s\n   %s:%d\n",
			i+1, frame.Function, frame.File, frame.Line))
	}

	return builder.String()
}

// HTTPStatus 返回对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch {
	case e.Code == ErrNotFound:
		return 404
	case e.Code == ErrInvalidParam || e.Code == ErrAlreadyExists:
		return 400
	case e.Code == ErrPermissionDenied:
		return 403
	case e.Code == ErrTimeout:
		return 408
	case e.Code >= 2000 && e.Code <= 2999:
		return 409
	case e.Code >= 7000 && e.Code <= 7003:
		return 401
	case e.Code == ErrRateLimitExceeded:
		return 429
	case e.Code >= 5000 && e.Code <= 5999:
		return 503
	default:
		return 500
	}
}

// HTTPStatus 返回错误链中AppError对应的HTTP状态码，非AppError为500
func HTTPStatus(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return 500
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch GetCode(err) {
	case ErrTimeout,
		ErrWebSocketConnect,
		ErrRegistry,
		ErrDatabaseConnect,
		ErrGameStateError:
		return true
	default:
		return false
	}
}

// IsCritical 判断是否为严重错误
func IsCritical(err error) bool {
	if err == nil {
		return false
	}

	switch GetCode(err) {
	case ErrDatabaseConnect,
		ErrConfigLoad,
		ErrConfigMissing,
		ErrDataIntegrity:
		return true
	default:
		return false
	}
}

// ErrorResponse API错误响应结构
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     *AppError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(err *AppError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     err,
		RequestID: requestID,
		Timestamp: time.Now().Unix(),
	}
}
