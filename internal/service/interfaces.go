package service

import (
	"context"
	"time"

	"github.com/wfunc/tictactoe/internal/models"
)

// PlayerService 玩家服务接口
type PlayerService interface {
	ListPlayers(ctx context.Context, skip, limit int) ([]*PlayerView, error)
	GetPlayer(ctx context.Context, id uint) (*PlayerView, error)
	CreatePlayer(ctx context.Context, req *CreatePlayerRequest) (*PlayerView, error)
}

// RoomService 房间服务接口
type RoomService interface {
	ListActiveRooms(ctx context.Context) ([]*RoomView, error)
	GetRoom(ctx context.Context, code string) (*RoomView, error)
	CreateRoom(ctx context.Context, req *CreateRoomRequest) (*RoomView, error)
}

// GameService 对局查询服务接口
type GameService interface {
	ListGames(ctx context.Context, skip, limit int, status string) ([]*GameSummary, error)
	GetGame(ctx context.Context, id uint) (*GameDetail, error)
	ListMoves(ctx context.Context, id uint) ([]*models.GameMove, error)
}

// StatsService 统计服务接口
type StatsService interface {
	General(ctx context.Context) (*GeneralStats, error)
	Ranking(ctx context.Context, limit int) ([]*RankingEntry, error)
	PlayerStats(ctx context.Context, id uint) (*PlayerStats, error)
	Leaderboard(ctx context.Context) (*Leaderboard, error)
}

// CreatePlayerRequest 创建玩家请求
type CreatePlayerRequest struct {
	Username    string `json:"username" binding:"required,max=50"`
	DisplayName string `json:"display_name" binding:"max=100"`
}

// CreateRoomRequest 创建房间请求，code 为空时自动生成
type CreateRoomRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	Code      string `json:"code" binding:"max=10"`
	IsPublic  *bool  `json:"is_public"`
	CreatedBy string `json:"created_by" binding:"required,max=50"`
}

// PlayerView 玩家信息
type PlayerView struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	TotalGames  int       `json:"total_games"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Draws       int       `json:"draws"`
	WinRate     float64   `json:"win_rate"`
	RankScore   int       `json:"rank_score"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeen    time.Time `json:"last_seen"`
}

// RoomView 房间信息
type RoomView struct {
	ID           uint          `json:"id"`
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	IsPublic     bool          `json:"is_public"`
	Status       models.Status `json:"status"`
	PlayersCount int           `json:"players_count"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
}

// PlayerRef 对局中的玩家引用
type PlayerRef struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// GameSummary 对局列表项
type GameSummary struct {
	ID              uint              `json:"id"`
	RoomID          uint              `json:"room_id"`
	Player1Username string            `json:"player1_username"`
	Player2Username *string           `json:"player2_username"`
	Status          models.Status     `json:"status"`
	Result          models.GameResult `json:"result,omitempty"`
	WinnerUsername  *string           `json:"winner_username"`
	TotalMoves      int               `json:"total_moves"`
	CreatedAt       time.Time         `json:"created_at"`
	StartedAt       *time.Time        `json:"started_at"`
	FinishedAt      *time.Time        `json:"finished_at"`
}

// GameDetail 对局详情
type GameDetail struct {
	ID             uint              `json:"id"`
	RoomID         uint              `json:"room_id"`
	Player1        *PlayerRef        `json:"player1"`
	Player2        *PlayerRef        `json:"player2"`
	Winner         *PlayerRef        `json:"winner"`
	Status         models.Status     `json:"status"`
	Result         models.GameResult `json:"result,omitempty"`
	BoardState     string            `json:"board_state"`
	Board          []string          `json:"board"`
	AvailableMoves []int             `json:"available_moves"`
	CurrentTurn    int               `json:"current_turn"`
	TotalMoves     int               `json:"total_moves"`
	CreatedAt      time.Time         `json:"created_at"`
	StartedAt      *time.Time        `json:"started_at"`
	FinishedAt     *time.Time        `json:"finished_at"`
}

// GeneralStats 总体统计
type GeneralStats struct {
	TotalPlayers  int64 `json:"total_players"`
	TotalGames    int64 `json:"total_games"`
	FinishedGames int64 `json:"finished_games"`
	ActiveRooms   int64 `json:"active_rooms"`
	ActivePlayers int64 `json:"active_players"`
}

// RankingEntry 排行榜条目
type RankingEntry struct {
	Rank int `json:"rank"`
	*PlayerView
}

// RecentGame 玩家最近对局
type RecentGame struct {
	GameID     uint       `json:"game_id"`
	Opponent   string     `json:"opponent"`
	Result     string     `json:"result"` // win, loss, draw
	TotalMoves int        `json:"total_moves"`
	FinishedAt *time.Time `json:"finished_at"`
}

// PlayerStats 玩家详细统计
type PlayerStats struct {
	Player      *PlayerView   `json:"player"`
	RecentGames []*RecentGame `json:"recent_games"`
}

// LeaderboardEntry 排行分类条目
type LeaderboardEntry struct {
	Username   string   `json:"username"`
	Wins       *int     `json:"wins,omitempty"`
	WinRate    *float64 `json:"win_rate,omitempty"`
	TotalGames int      `json:"total_games"`
}

// Leaderboard 多分类排行
type Leaderboard struct {
	MostWins    []*LeaderboardEntry `json:"most_wins"`
	BestWinRate []*LeaderboardEntry `json:"best_win_rate"`
	MostActive  []*LeaderboardEntry `json:"most_active"`
}

// NewPlayerView 由模型构建玩家信息
func NewPlayerView(p *models.Player) *PlayerView {
	if p == nil {
		return nil
	}
	return &PlayerView{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		TotalGames:  p.TotalGames,
		Wins:        p.Wins,
		Losses:      p.Losses,
		Draws:       p.Draws,
		WinRate:     p.WinRate(),
		RankScore:   p.RankScore(),
		CreatedAt:   p.CreatedAt,
		LastSeen:    p.LastSeen,
	}
}
