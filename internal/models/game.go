package models

import (
	"time"

	"gorm.io/gorm"
)

// EmptyBoard 初始棋盘，9个'0'
const EmptyBoard = "000000000"

// Game 一局井字棋，棋盘按行优先存为9个字符：'0'空，'1'玩家1，'2'玩家2
type Game struct {
	BaseModel
	RoomID      uint       `gorm:"uniqueIndex;not null" json:"room_id"`
	Player1ID   uint       `gorm:"not null;index" json:"player1_id"`
	Player2ID   *uint      `gorm:"index" json:"player2_id"`
	WinnerID    *uint      `json:"winner_id"`
	Status      Status     `gorm:"size:20;not null;index" json:"status"`
	Result      GameResult `gorm:"size:20" json:"result"`
	BoardState  string     `gorm:"size:9;not null" json:"board_state"`
	CurrentTurn int        `gorm:"not null" json:"current_turn"`
	TotalMoves  int        `gorm:"not null;default:0" json:"total_moves"`
	StartedAt   *time.Time `json:"started_at"`
	FinishedAt  *time.Time `gorm:"index" json:"finished_at"`

	Room    *Room   `gorm:"foreignKey:RoomID" json:"-"`
	Player1 *Player `gorm:"foreignKey:Player1ID" json:"player1,omitempty"`
	Player2 *Player `gorm:"foreignKey:Player2ID" json:"player2,omitempty"`
	Winner  *Player `gorm:"foreignKey:WinnerID" json:"winner,omitempty"`
}

// TableName 指定表名
func (Game) TableName() string {
	return "games"
}

// BeforeCreate 创建前的钩子
func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.BoardState == "" {
		g.BoardState = EmptyBoard
	}
	if g.CurrentTurn == 0 {
		g.CurrentTurn = 1
	}
	if g.Status == "" {
		g.Status = StatusWaiting
	}
	return nil
}

// PlayerNumber 返回玩家在本局中的座位号，1或2；非参与者返回0
func (g *Game) PlayerNumber(playerID uint) int {
	switch {
	case g.Player1ID == playerID:
		return 1
	case g.Player2ID != nil && *g.Player2ID == playerID:
		return 2
	default:
		return 0
	}
}

// PlayerIDByNumber 按座位号取玩家ID
func (g *Game) PlayerIDByNumber(number int) (uint, bool) {
	switch number {
	case 1:
		return g.Player1ID, true
	case 2:
		if g.Player2ID != nil {
			return *g.Player2ID, true
		}
	}
	return 0, false
}

// IsFull 两个座位是否都已就坐
func (g *Game) IsFull() bool {
	return g.Player2ID != nil
}

// IsFinished 是否已结束
func (g *Game) IsFinished() bool {
	return g.Status == StatusFinished
}
