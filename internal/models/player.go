package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Player 玩家，按用户名唯一，首次出现时创建，从不删除
type Player struct {
	BaseModel
	Username    string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	DisplayName string    `gorm:"size:100" json:"display_name"`
	TotalGames  int       `gorm:"not null;default:0" json:"total_games"`
	Wins        int       `gorm:"not null;default:0;index" json:"wins"`
	Losses      int       `gorm:"not null;default:0" json:"losses"`
	Draws       int       `gorm:"not null;default:0" json:"draws"`
	LastSeen    time.Time `json:"last_seen"`
}

// TableName 指定表名
func (Player) TableName() string {
	return "players"
}

// BeforeCreate 创建前的钩子
func (p *Player) BeforeCreate(tx *gorm.DB) error {
	if p.DisplayName == "" {
		p.DisplayName = p.Username
	}
	if p.LastSeen.IsZero() {
		p.LastSeen = time.Now()
	}
	return nil
}

// WinRate 胜率百分比，保留两位小数，无对局时为0
func (p *Player) WinRate() float64 {
	if p.TotalGames == 0 {
		return 0
	}
	rate := float64(p.Wins) / float64(p.TotalGames) * 100
	return math.Round(rate*100) / 100
}

// RankScore 排名积分：胜3分，平1分
func (p *Player) RankScore() int {
	return p.Wins*3 + p.Draws
}
