package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/tictactoe/internal/errors"
	"github.com/wfunc/tictactoe/internal/logger"
	"github.com/wfunc/tictactoe/internal/middleware"
	"go.uber.org/zap"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MessageResponse 简单消息响应
type MessageResponse struct {
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
	Docs    string `json:"docs,omitempty"`
}

// codeNames 错误码到响应 code 字段
var codeNames = map[apperrors.ErrorCode]string{
	apperrors.ErrInvalidParam:   "INVALID_REQUEST",
	apperrors.ErrNotFound:       "NOT_FOUND",
	apperrors.ErrAlreadyExists:  "ALREADY_EXISTS",
	apperrors.ErrGameStateError: "CONFLICT",
}

// respondError 按错误码写错误响应；意外错误只记录日志，不向客户端暴露细节
func respondError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)

	status := apperrors.HTTPStatus(err)

	name, ok := codeNames[code]
	if !ok || status >= http.StatusInternalServerError {
		logger.GetLogger().Error("请求处理失败",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "服务器内部错误",
		})
		return
	}

	c.JSON(status, ErrorResponse{
		Code:    name,
		Message: apperrors.Details(err),
	})
}

// badRequest 请求参数绑定失败
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    "INVALID_REQUEST",
		Message: "请求参数错误",
		Details: err.Error(),
	})
}
