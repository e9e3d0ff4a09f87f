package service

import (
	"github.com/wfunc/tictactoe/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	Player PlayerService
	Room   RoomService
	Game   GameService
	Stats  StatsService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, log *zap.Logger) *Services {
	// 初始化仓储
	playerRepo := repository.NewPlayerRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	gameRepo := repository.NewGameRepository(db)
	moveRepo := repository.NewMoveRepository(db)

	return &Services{
		Player: NewPlayerService(playerRepo, log),
		Room:   NewRoomService(roomRepo, playerRepo, log),
		Game:   NewGameService(gameRepo, moveRepo, log),
		Stats:  NewStatsService(playerRepo, roomRepo, gameRepo, log),
	}
}
