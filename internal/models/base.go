package models

import "time"

// BaseModel 公共字段
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status 房间与对局共用的生命周期状态
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// IsValid 是否为已知状态
func (s Status) IsValid() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusFinished:
		return true
	}
	return false
}

// GameResult 对局结果
type GameResult string

const (
	ResultNone       GameResult = ""
	ResultPlayer1Win GameResult = "player1_win"
	ResultPlayer2Win GameResult = "player2_win"
	ResultDraw       GameResult = "draw"
)

// AllModels 需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&Player{},
		&Room{},
		&Game{},
		&GameMove{},
	}
}
