package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/tictactoe/internal/service"
)

// GameHandler 对局查询接口
type GameHandler struct {
	games service.GameService
}

// NewGameHandler 创建对局处理器
func NewGameHandler(games service.GameService) *GameHandler {
	return &GameHandler{games: games}
}

type gameListQuery struct {
	pageQuery
	Status string `form:"status"`
}

// List 对局列表
// @Summary 对局列表
// @Tags Games
// @Produce json
// @Param skip query int false "跳过条数" default(0)
// @Param limit query int false "返回条数" default(50)
// @Param status query string false "状态过滤" Enums(waiting, in_progress, finished)
// @Success 200 {array} service.GameSummary
// @Router /api/games [get]
func (h *GameHandler) List(c *gin.Context) {
	var q gameListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	games, err := h.games.ListGames(c.Request.Context(), q.Skip, q.Limit, q.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

// Get 对局详情
// @Summary 对局详情
// @Tags Games
// @Produce json
// @Param id path int true "对局ID"
// @Success 200 {object} service.GameDetail
// @Failure 404 {object} ErrorResponse
// @Router /api/games/{id} [get]
func (h *GameHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	game, err := h.games.GetGame(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// Moves 落子记录
// @Summary 对局落子记录
// @Tags Games
// @Produce json
// @Param id path int true "对局ID"
// @Success 200 {array} models.GameMove
// @Failure 404 {object} ErrorResponse
// @Router /api/games/{id}/moves [get]
func (h *GameHandler) Moves(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	moves, err := h.games.ListMoves(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, moves)
}

// pathID 解析路径中的 :id，失败时直接写400
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "无效的ID",
			Details: c.Param("id"),
		})
		return 0, false
	}
	return uint(id), true
}
