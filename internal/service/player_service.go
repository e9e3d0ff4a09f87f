package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/wfunc/tictactoe/internal/errors"
	"github.com/wfunc/tictactoe/internal/models"
	"github.com/wfunc/tictactoe/internal/repository"
	"go.uber.org/zap"
)

type playerService struct {
	playerRepo repository.PlayerRepository
	log        *zap.Logger
}

// NewPlayerService 创建玩家服务
func NewPlayerService(playerRepo repository.PlayerRepository, log *zap.Logger) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		log:        log,
	}
}

// ListPlayers 分页获取玩家
func (s *playerService) ListPlayers(ctx context.Context, skip, limit int) ([]*PlayerView, error) {
	players, err := s.playerRepo.List(ctx, repository.NewPagination(skip, limit, 100))
	if err != nil {
		s.log.Error("Failed to list players", zap.Error(err))
		return nil, fmt.Errorf("获取玩家列表失败: %w", err)
	}

	views := make([]*PlayerView, 0, len(players))
	for _, p := range players {
		views = append(views, NewPlayerView(p))
	}
	return views, nil
}

// GetPlayer 根据ID获取玩家
func (s *playerService) GetPlayer(ctx context.Context, id uint) (*PlayerView, error) {
	player, err := s.playerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("获取玩家失败: %w", err)
	}
	return NewPlayerView(player), nil
}

// CreatePlayer 创建玩家，用户名已存在时返回 ErrAlreadyExists
func (s *playerService) CreatePlayer(ctx context.Context, req *CreatePlayerRequest) (*PlayerView, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "username is required")
	}

	if _, err := s.playerRepo.FindByUsername(ctx, username); err == nil {
		return nil, apperrors.New(apperrors.ErrAlreadyExists, "Username already exists")
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("检查用户名失败: %w", err)
	}

	player := &models.Player{
		Username:    username,
		DisplayName: strings.TrimSpace(req.DisplayName),
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		if apperrors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.New(apperrors.ErrAlreadyExists, "Username already exists")
		}
		s.log.Error("Failed to create player", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("创建玩家失败: %w", err)
	}

	s.log.Info("Player created", zap.Uint("player_id", player.ID), zap.String("username", username))
	return NewPlayerView(player), nil
}
