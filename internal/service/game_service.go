package service

import (
	"context"
	"fmt"

	"github.com/wfunc/tictactoe/internal/game/board"
	"github.com/wfunc/tictactoe/internal/models"
	"github.com/wfunc/tictactoe/internal/repository"
	"go.uber.org/zap"
)

type gameService struct {
	gameRepo repository.GameRepository
	moveRepo repository.MoveRepository
	log      *zap.Logger
}

// NewGameService 创建对局查询服务
func NewGameService(gameRepo repository.GameRepository, moveRepo repository.MoveRepository, log *zap.Logger) GameService {
	return &gameService{
		gameRepo: gameRepo,
		moveRepo: moveRepo,
		log:      log,
	}
}

// ListGames 分页获取对局，最新的在前；未知状态值忽略过滤
func (s *gameService) ListGames(ctx context.Context, skip, limit int, status string) ([]*GameSummary, error) {
	filter := models.Status(status)
	if !filter.IsValid() {
		filter = ""
	}

	games, err := s.gameRepo.List(ctx, repository.NewPagination(skip, limit, 50), filter)
	if err != nil {
		s.log.Error("Failed to list games", zap.Error(err))
		return nil, fmt.Errorf("获取对局列表失败: %w", err)
	}

	summaries := make([]*GameSummary, 0, len(games))
	for _, g := range games {
		summaries = append(summaries, newGameSummary(g))
	}
	return summaries, nil
}

// GetGame 获取对局详情
func (s *gameService) GetGame(ctx context.Context, id uint) (*GameDetail, error) {
	g, err := s.gameRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("获取对局失败: %w", err)
	}

	detail := &GameDetail{
		ID:             g.ID,
		RoomID:         g.RoomID,
		Player1:        playerRef(g.Player1),
		Player2:        playerRef(g.Player2),
		Winner:         playerRef(g.Winner),
		Status:         g.Status,
		Result:         g.Result,
		BoardState:     g.BoardState,
		Board:          board.Display(g.BoardState),
		AvailableMoves: []int{},
		CurrentTurn:    g.CurrentTurn,
		TotalMoves:     g.TotalMoves,
		CreatedAt:      g.CreatedAt,
		StartedAt:      g.StartedAt,
		FinishedAt:     g.FinishedAt,
	}
	if !g.IsFinished() {
		detail.AvailableMoves = board.AvailableMoves(g.BoardState)
	}
	return detail, nil
}

// ListMoves 对局落子记录
func (s *gameService) ListMoves(ctx context.Context, id uint) ([]*models.GameMove, error) {
	if _, err := s.gameRepo.FindByID(ctx, id); err != nil {
		return nil, fmt.Errorf("获取对局失败: %w", err)
	}
	moves, err := s.moveRepo.ListByGame(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("获取落子记录失败: %w", err)
	}
	return moves, nil
}

func newGameSummary(g *models.Game) *GameSummary {
	summary := &GameSummary{
		ID:              g.ID,
		RoomID:          g.RoomID,
		Player1Username: "Unknown",
		Status:          g.Status,
		Result:          g.Result,
		TotalMoves:      g.TotalMoves,
		CreatedAt:       g.CreatedAt,
		StartedAt:       g.StartedAt,
		FinishedAt:      g.FinishedAt,
	}
	if g.Player1 != nil {
		summary.Player1Username = g.Player1.Username
	}
	if g.Player2 != nil {
		summary.Player2Username = &g.Player2.Username
	}
	if g.Winner != nil {
		summary.WinnerUsername = &g.Winner.Username
	}
	return summary
}

func playerRef(p *models.Player) *PlayerRef {
	if p == nil {
		return nil
	}
	return &PlayerRef{ID: p.ID, Username: p.Username}
}
