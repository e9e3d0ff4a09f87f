package service

import (
	"context"
	"fmt"

	"github.com/wfunc/tictactoe/internal/models"
	"github.com/wfunc/tictactoe/internal/repository"
	"go.uber.org/zap"
)

const (
	recentGamesLimit    = 10
	leaderboardLimit    = 5
	leaderboardMinGames = 10
	defaultRankingLimit = 10
	maxRankingLimit     = 100
)

type statsService struct {
	playerRepo repository.PlayerRepository
	roomRepo   repository.RoomRepository
	gameRepo   repository.GameRepository
	log        *zap.Logger
}

// NewStatsService 创建统计服务
func NewStatsService(
	playerRepo repository.PlayerRepository,
	roomRepo repository.RoomRepository,
	gameRepo repository.GameRepository,
	log *zap.Logger,
) StatsService {
	return &statsService{
		playerRepo: playerRepo,
		roomRepo:   roomRepo,
		gameRepo:   gameRepo,
		log:        log,
	}
}

// General 总体统计，active_players 按每个对局中房间两人估算
func (s *statsService) General(ctx context.Context) (*GeneralStats, error) {
	stats := &GeneralStats{}
	var err error

	if stats.TotalPlayers, err = s.playerRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("统计玩家失败: %w", err)
	}
	if stats.TotalGames, err = s.gameRepo.Count(ctx, ""); err != nil {
		return nil, fmt.Errorf("统计对局失败: %w", err)
	}
	if stats.FinishedGames, err = s.gameRepo.Count(ctx, models.StatusFinished); err != nil {
		return nil, fmt.Errorf("统计对局失败: %w", err)
	}
	if stats.ActiveRooms, err = s.roomRepo.CountByStatus(ctx, models.StatusInProgress); err != nil {
		return nil, fmt.Errorf("统计房间失败: %w", err)
	}
	stats.ActivePlayers = stats.ActiveRooms * 2

	return stats, nil
}

// Ranking 按胜场排名
func (s *statsService) Ranking(ctx context.Context, limit int) ([]*RankingEntry, error) {
	if limit <= 0 {
		limit = defaultRankingLimit
	}
	if limit > maxRankingLimit {
		limit = maxRankingLimit
	}

	players, err := s.playerRepo.Ranking(ctx, limit)
	if err != nil {
		s.log.Error("Failed to load ranking", zap.Error(err))
		return nil, fmt.Errorf("获取排行榜失败: %w", err)
	}

	entries := make([]*RankingEntry, 0, len(players))
	for i, p := range players {
		entries = append(entries, &RankingEntry{Rank: i + 1, PlayerView: NewPlayerView(p)})
	}
	return entries, nil
}

// PlayerStats 玩家详情及最近10局
func (s *statsService) PlayerStats(ctx context.Context, id uint) (*PlayerStats, error) {
	player, err := s.playerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("获取玩家失败: %w", err)
	}

	games, err := s.gameRepo.RecentFinishedForPlayer(ctx, id, recentGamesLimit)
	if err != nil {
		return nil, fmt.Errorf("获取最近对局失败: %w", err)
	}

	recent := make([]*RecentGame, 0, len(games))
	for _, g := range games {
		recent = append(recent, newRecentGame(g, id))
	}

	return &PlayerStats{
		Player:      NewPlayerView(player),
		RecentGames: recent,
	}, nil
}

// Leaderboard 胜场、胜率、活跃度三个分类
func (s *statsService) Leaderboard(ctx context.Context) (*Leaderboard, error) {
	mostWins, err := s.playerRepo.MostWins(ctx, leaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("获取胜场榜失败: %w", err)
	}
	bestRate, err := s.playerRepo.BestWinRate(ctx, leaderboardMinGames, leaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("获取胜率榜失败: %w", err)
	}
	mostActive, err := s.playerRepo.MostActive(ctx, leaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("获取活跃榜失败: %w", err)
	}

	board := &Leaderboard{
		MostWins:    make([]*LeaderboardEntry, 0, len(mostWins)),
		BestWinRate: make([]*LeaderboardEntry, 0, len(bestRate)),
		MostActive:  make([]*LeaderboardEntry, 0, len(mostActive)),
	}
	for _, p := range mostWins {
		wins := p.Wins
		board.MostWins = append(board.MostWins, &LeaderboardEntry{Username: p.Username, Wins: &wins, TotalGames: p.TotalGames})
	}
	for _, p := range bestRate {
		rate := p.WinRate()
		board.BestWinRate = append(board.BestWinRate, &LeaderboardEntry{Username: p.Username, WinRate: &rate, TotalGames: p.TotalGames})
	}
	for _, p := range mostActive {
		board.MostActive = append(board.MostActive, &LeaderboardEntry{Username: p.Username, TotalGames: p.TotalGames})
	}
	return board, nil
}

func newRecentGame(g *models.Game, playerID uint) *RecentGame {
	recent := &RecentGame{
		GameID:     g.ID,
		TotalMoves: g.TotalMoves,
		FinishedAt: g.FinishedAt,
	}

	opponent := g.Player2
	if g.Player1ID != playerID {
		opponent = g.Player1
	}
	if opponent != nil {
		recent.Opponent = opponent.Username
	}

	switch {
	case g.WinnerID == nil:
		recent.Result = "draw"
	case *g.WinnerID == playerID:
		recent.Result = "win"
	default:
		recent.Result = "loss"
	}
	return recent
}
