package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ErrorsTestSuite 错误包测试套件
type ErrorsTestSuite struct {
	suite.Suite
}

func (suite *ErrorsTestSuite) TestNew() {
	err := New(ErrInvalidMove)
	suite.Equal(ErrInvalidMove, err.Code)
	suite.Equal("无效的落子", err.Message)
	suite.Empty(err.Details)

	err = New(ErrNotFound, "Room not found", "code: ABC123")
	suite.Equal("资源未找到", err.Message)
	suite.Equal("Room not found; code: ABC123", err.Details)
	suite.Equal("[1002] 资源未找到: Room not found; code: ABC123", err.Error())
}

func (suite *ErrorsTestSuite) TestNewf() {
	err := Newf(ErrInvalidParam, "位置 %d 超出范围", 9)
	suite.Equal("位置 9 超出范围", err.Details)
}

func (suite *ErrorsTestSuite) TestWrap() {
	cause := errors.New("disk I/O error")
	wrapped := Wrap(cause, ErrDatabaseQuery)
	suite.Equal(ErrDatabaseQuery, wrapped.Code)
	suite.Equal("disk I/O error", wrapped.Details)
	suite.Equal(cause, wrapped.Unwrap())
	suite.True(errors.Is(wrapped, cause))

	suite.Nil(Wrap(nil, ErrUnknown))

	// 已有AppError时保留原始错误码
	inner := New(ErrCellOccupied, "Position already taken")
	outer := Wrap(inner, ErrDatabaseUpdate, "落子失败")
	suite.Equal(ErrCellOccupied, outer.Code)
	suite.Contains(outer.Details, "落子失败")
	suite.Contains(outer.Details, "Position already taken")
}

func (suite *ErrorsTestSuite) TestIsAndGetCode() {
	err := New(ErrNotYourTurn)
	suite.True(Is(err, ErrNotYourTurn))
	suite.False(Is(err, ErrCellOccupied))
	suite.False(Is(nil, ErrNotYourTurn))
	suite.False(Is(errors.New("plain"), ErrUnknown))

	// fmt包装后仍能识别
	chained := fmt.Errorf("make_move: %w", err)
	suite.True(Is(chained, ErrNotYourTurn))
	suite.Equal(ErrNotYourTurn, GetCode(chained))

	suite.Equal(ErrUnknown, GetCode(errors.New("plain")))
	suite.Equal(ErrorCode(0), GetCode(nil))
}

func (suite *ErrorsTestSuite) TestDetails() {
	suite.Equal("Room not found", Details(New(ErrNotFound, "Room not found")))
	suite.Equal("[1002] 资源未找到", Details(New(ErrNotFound)))
	suite.Equal("boom", Details(errors.New("boom")))
	suite.Empty(Details(nil))
}

func (suite *ErrorsTestSuite) TestWithCause() {
	err := New(ErrDatabaseQuery)
	cause := errors.New("SQL语法错误")
	err.WithCause(cause)
	suite.Equal(cause, err.Cause)
	suite.Equal("SQL语法错误", err.Details)

	err2 := New(ErrDatabaseQuery, "查询失败").WithCause(cause)
	suite.Equal("查询失败", err2.Details)
}

func (suite *ErrorsTestSuite) TestHTTPStatus() {
	cases := map[ErrorCode]int{
		ErrInvalidParam:    400,
		ErrAlreadyExists:   400,
		ErrNotFound:        404,
		ErrNotYourTurn:     409,
		ErrGameStateError:  409,
		ErrTokenInvalid:    401,
		ErrDatabaseConnect: 503,
		ErrUnknown:         500,
	}
	for code, expected := range cases {
		suite.Equal(expected, New(code).HTTPStatus(), "错误码 %d", code)
	}

	wrapped := fmt.Errorf("获取玩家失败: %w", New(ErrNotFound, "Player not found"))
	suite.Equal(404, HTTPStatus(wrapped))
	suite.Equal(500, HTTPStatus(errors.New("boom")))
}

func (suite *ErrorsTestSuite) TestRetryableAndCritical() {
	suite.True(IsRetryable(New(ErrGameStateError)))
	suite.True(IsRetryable(New(ErrRegistry)))
	suite.False(IsRetryable(New(ErrCellOccupied)))
	suite.False(IsRetryable(nil))

	suite.True(IsCritical(New(ErrDatabaseConnect)))
	suite.True(IsCritical(New(ErrConfigLoad)))
	suite.False(IsCritical(New(ErrNotFound)))
	suite.False(IsCritical(nil))
}

func (suite *ErrorsTestSuite) TestStackCapture() {
	err := New(ErrUnknown)
	suite.NotEmpty(err.Stack)
	suite.NotEmpty(err.GetStack())
}

func (suite *ErrorsTestSuite) TestErrorResponse() {
	err := New(ErrNotFound, "Game not found")
	response := NewErrorResponse(err, "req-123")
	suite.False(response.Success)
	suite.Equal(err, response.Error)
	suite.Equal("req-123", response.RequestID)
	suite.Greater(response.Timestamp, int64(0))
}

func (suite *ErrorsTestSuite) TestUnknownErrorCode() {
	err := New(ErrorCode(99999))
	suite.Equal("未知错误", err.Message)
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}
