package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/tictactoe/internal/service"
)

// PlayerHandler 玩家接口
type PlayerHandler struct {
	players service.PlayerService
}

// NewPlayerHandler 创建玩家处理器
func NewPlayerHandler(players service.PlayerService) *PlayerHandler {
	return &PlayerHandler{players: players}
}

// pageQuery 分页参数
type pageQuery struct {
	Skip  int `form:"skip" binding:"min=0"`
	Limit int `form:"limit" binding:"min=0"`
}

// List 玩家列表
// @Summary 玩家列表
// @Tags Players
// @Produce json
// @Param skip query int false "跳过条数" default(0)
// @Param limit query int false "返回条数" default(100)
// @Success 200 {array} service.PlayerView
// @Failure 400 {object} ErrorResponse
// @Router /api/players [get]
func (h *PlayerHandler) List(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	players, err := h.players.ListPlayers(c.Request.Context(), q.Skip, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, players)
}

// Get 玩家详情
// @Summary 玩家详情
// @Tags Players
// @Produce json
// @Param id path int true "玩家ID"
// @Success 200 {object} service.PlayerView
// @Failure 404 {object} ErrorResponse
// @Router /api/players/{id} [get]
func (h *PlayerHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	player, err := h.players.GetPlayer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

// Create 创建玩家
// @Summary 创建玩家
// @Tags Players
// @Accept json
// @Produce json
// @Param request body service.CreatePlayerRequest true "玩家信息"
// @Success 201 {object} service.PlayerView
// @Failure 400 {object} ErrorResponse
// @Router /api/players [post]
func (h *PlayerHandler) Create(c *gin.Context) {
	var req service.CreatePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	player, err := h.players.CreatePlayer(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, player)
}
