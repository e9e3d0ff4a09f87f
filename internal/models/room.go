package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxRoomCodeLen 房间码最大长度，与 code 列宽一致
const MaxRoomCodeLen = 10

// Room 房间，通过房间码加入，至多承载一局对局
type Room struct {
	BaseModel
	Code        string     `gorm:"uniqueIndex;size:10;not null" json:"code"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	IsPublic    bool       `gorm:"not null" json:"is_public"`
	MaxPlayers  int        `gorm:"not null" json:"max_players"`
	Status      Status     `gorm:"size:20;not null;index" json:"status"`
	CreatedByID *uint      `gorm:"index" json:"created_by_id"`
	StartedAt   *time.Time `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at"`

	CreatedBy *Player `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Game      *Game   `gorm:"foreignKey:RoomID" json:"game,omitempty"`
}

// TableName 指定表名
func (Room) TableName() string {
	return "rooms"
}

// BeforeCreate 创建前的钩子
func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.Status == "" {
		r.Status = StatusWaiting
	}
	if r.MaxPlayers == 0 {
		r.MaxPlayers = 2
	}
	return nil
}

// IsActive 房间是否仍在等待或对局中
func (r *Room) IsActive() bool {
	return r.Status == StatusWaiting || r.Status == StatusInProgress
}
