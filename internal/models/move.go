package models

import "time"

// GameMove 落子记录，(game_id, move_number) 唯一
type GameMove struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	GameID       uint      `gorm:"uniqueIndex:idx_game_moves_game_number;not null" json:"game_id"`
	MoveNumber   int       `gorm:"uniqueIndex:idx_game_moves_game_number;not null" json:"move_number"`
	PlayerID     uint      `gorm:"not null;index" json:"player_id"`
	PlayerNumber int       `gorm:"not null" json:"player_number"`
	Position     int       `gorm:"not null" json:"position"`
	BoardAfter   string    `gorm:"size:9;not null" json:"board_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName 指定表名
func (GameMove) TableName() string {
	return "game_moves"
}
