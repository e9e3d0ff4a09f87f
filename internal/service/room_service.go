package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/wfunc/tictactoe/internal/errors"
	"github.com/wfunc/tictactoe/internal/models"
	"github.com/wfunc/tictactoe/internal/repository"
	"go.uber.org/zap"
)

const (
	roomCodeLength   = 6
	roomCodeAttempts = 5
)

type roomService struct {
	roomRepo   repository.RoomRepository
	playerRepo repository.PlayerRepository
	log        *zap.Logger
}

// NewRoomService 创建房间服务
func NewRoomService(roomRepo repository.RoomRepository, playerRepo repository.PlayerRepository, log *zap.Logger) RoomService {
	return &roomService{
		roomRepo:   roomRepo,
		playerRepo: playerRepo,
		log:        log,
	}
}

// ListActiveRooms 等待中或对局中的公开房间
func (s *roomService) ListActiveRooms(ctx context.Context) ([]*RoomView, error) {
	rooms, err := s.roomRepo.ListActivePublic(ctx)
	if err != nil {
		s.log.Error("Failed to list rooms", zap.Error(err))
		return nil, fmt.Errorf("获取房间列表失败: %w", err)
	}

	views := make([]*RoomView, 0, len(rooms))
	for _, r := range rooms {
		views = append(views, newRoomView(r))
	}
	return views, nil
}

// GetRoom 根据房间码获取房间
func (s *roomService) GetRoom(ctx context.Context, code string) (*RoomView, error) {
	room, err := s.roomRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("获取房间失败: %w", err)
	}
	return newRoomView(room), nil
}

// CreateRoom 创建房间，创建者不存在时自动创建
func (s *roomService) CreateRoom(ctx context.Context, req *CreateRoomRequest) (*RoomView, error) {
	name := strings.TrimSpace(req.Name)
	creatorName := strings.TrimSpace(req.CreatedBy)
	if name == "" || creatorName == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "name and created_by are required")
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		generated, err := s.generateCode(ctx)
		if err != nil {
			return nil, err
		}
		code = generated
	} else if len(code) > models.MaxRoomCodeLen {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "room code must be at most %d characters", models.MaxRoomCodeLen)
	} else {
		exists, err := s.roomRepo.ExistsByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("检查房间码失败: %w", err)
		}
		if exists {
			return nil, apperrors.New(apperrors.ErrAlreadyExists, "Room code already exists")
		}
	}

	creator, err := s.playerRepo.FindOrCreate(ctx, creatorName)
	if err != nil {
		return nil, fmt.Errorf("获取创建者失败: %w", err)
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	room := &models.Room{
		Code:        code,
		Name:        name,
		IsPublic:    isPublic,
		CreatedByID: &creator.ID,
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		if apperrors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.New(apperrors.ErrAlreadyExists, "Room code already exists")
		}
		s.log.Error("Failed to create room", zap.Error(err), zap.String("code", code))
		return nil, fmt.Errorf("创建房间失败: %w", err)
	}

	s.log.Info("Room created",
		zap.Uint("room_id", room.ID),
		zap.String("code", code),
		zap.String("created_by", creatorName),
	)
	return newRoomView(room), nil
}

// generateCode 生成未被占用的6位大写房间码
func (s *roomService) generateCode(ctx context.Context) (string, error) {
	for i := 0; i < roomCodeAttempts; i++ {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		code := strings.ToUpper(raw[:roomCodeLength])

		exists, err := s.roomRepo.ExistsByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("检查房间码失败: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperrors.New(apperrors.ErrAlreadyExists, "could not allocate a room code")
}

func newRoomView(r *models.Room) *RoomView {
	view := &RoomView{
		ID:         r.ID,
		Code:       r.Code,
		Name:       r.Name,
		IsPublic:   r.IsPublic,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if r.Game != nil {
		view.PlayersCount = 1
		if r.Game.IsFull() {
			view.PlayersCount = 2
		}
	}
	return view
}
