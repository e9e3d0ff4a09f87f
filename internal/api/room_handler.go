package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/tictactoe/internal/service"
)

// RoomHandler 房间接口
type RoomHandler struct {
	rooms service.RoomService
}

// NewRoomHandler 创建房间处理器
func NewRoomHandler(rooms service.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// List 公开的活跃房间
// @Summary 活跃房间列表
// @Description 返回等待中或对局中的公开房间，最新的在前
// @Tags Rooms
// @Produce json
// @Success 200 {array} service.RoomView
// @Router /api/rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.rooms.ListActiveRooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// Get 按房间号查询
// @Summary 房间详情
// @Tags Rooms
// @Produce json
// @Param code path string true "房间号"
// @Success 200 {object} service.RoomView
// @Failure 404 {object} ErrorResponse
// @Router /api/rooms/{code} [get]
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.rooms.GetRoom(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// Create 创建房间
// @Summary 创建房间
// @Description code 为空时自动生成6位房间号；创建者不存在时自动创建
// @Tags Rooms
// @Accept json
// @Produce json
// @Param request body service.CreateRoomRequest true "房间信息"
// @Success 201 {object} service.RoomView
// @Failure 400 {object} ErrorResponse
// @Router /api/rooms [post]
func (h *RoomHandler) Create(c *gin.Context) {
	var req service.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}
