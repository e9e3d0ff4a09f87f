package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/tictactoe/internal/service"
)

// StatsHandler 统计接口
type StatsHandler struct {
	stats service.StatsService
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(stats service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// General 总体统计
// @Summary 总体统计
// @Tags Stats
// @Produce json
// @Success 200 {object} service.GeneralStats
// @Router /api/stats/general [get]
func (h *StatsHandler) General(c *gin.Context) {
	stats, err := h.stats.General(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Ranking 胜场排行
// @Summary 胜场排行
// @Tags Stats
// @Produce json
// @Param limit query int false "返回条数" default(10)
// @Success 200 {array} service.RankingEntry
// @Router /api/stats/ranking [get]
func (h *StatsHandler) Ranking(c *gin.Context) {
	var q struct {
		Limit int `form:"limit" binding:"min=0"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	ranking, err := h.stats.Ranking(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ranking)
}

// Player 玩家战绩与最近对局
// @Summary 玩家统计
// @Tags Stats
// @Produce json
// @Param id path int true "玩家ID"
// @Success 200 {object} service.PlayerStats
// @Failure 404 {object} ErrorResponse
// @Router /api/stats/player/{id} [get]
func (h *StatsHandler) Player(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	stats, err := h.stats.PlayerStats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Leaderboard 排行榜
// @Summary 排行榜
// @Description 胜场最多、胜率最高（至少10局）、最活跃各取前5
// @Tags Stats
// @Produce json
// @Success 200 {object} service.Leaderboard
// @Router /api/stats/leaderboard [get]
func (h *StatsHandler) Leaderboard(c *gin.Context) {
	board, err := h.stats.Leaderboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}
