package repository

import (
	"context"
	"time"

	apperrors "github.com/wfunc/tictactoe/internal/errors"
	"github.com/wfunc/tictactoe/internal/models"
	"gorm.io/gorm"
)

// RoomRepository 房间仓储接口
type RoomRepository interface {
	BaseRepository
	Create(ctx context.Context, room *models.Room) error
	FindByID(ctx context.Context, id uint) (*models.Room, error)
	FindByCode(ctx context.Context, code string) (*models.Room, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	ListActivePublic(ctx context.Context) ([]*models.Room, error)
	UpdateStatus(ctx context.Context, id uint, status models.Status, at time.Time) error
	CountByStatus(ctx context.Context, statuses ...models.Status) (int64, error)
}

type roomRepo struct {
	*BaseRepo
}

// NewRoomRepository 创建房间仓储
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建房间
func (r *roomRepo) Create(ctx context.Context, room *models.Room) error {
	return translate(r.db.WithContext(ctx).Create(room).Error, "Room")
}

// FindByID 根据ID查找房间
func (r *roomRepo) FindByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).Preload("Game").First(&room, id).Error; err != nil {
		return nil, translate(err, "Room")
	}
	return &room, nil
}

// FindByCode 根据房间码查找房间
func (r *roomRepo) FindByCode(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Preload("Game").
		Where("code = ?", code).
		First(&room).Error
	if err != nil {
		return nil, translate(err, "Room")
	}
	return &room, nil
}

// ExistsByCode 房间码是否已被占用
func (r *roomRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "Room")
	}
	return count > 0, nil
}

// ListActivePublic 等待中或对局中的公开房间，最新的在前
func (r *roomRepo) ListActivePublic(ctx context.Context) ([]*models.Room, error) {
	var rooms []*models.Room
	err := r.db.WithContext(ctx).
		Preload("Game").
		Where("is_public = ?", true).
		Where("status IN ?", []models.Status{models.StatusWaiting, models.StatusInProgress}).
		Order("created_at desc").
		Order("id desc").
		Find(&rooms).Error
	return rooms, translate(err, "Room")
}

// UpdateStatus 更新房间状态，进入对局时记录开始时间，结束时记录结束时间
func (r *roomRepo) UpdateStatus(ctx context.Context, id uint, status models.Status, at time.Time) error {
	if !status.IsValid() {
		return apperrors.Newf(apperrors.ErrInvalidParam, "invalid room status %q", status)
	}

	updates := map[string]interface{}{"status": status}
	switch status {
	case models.StatusInProgress:
		updates["started_at"] = at
	case models.StatusFinished:
		updates["finished_at"] = at
	}

	err := r.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate)
	}
	return nil
}

// CountByStatus 按状态统计房间数
func (r *roomRepo) CountByStatus(ctx context.Context, statuses ...models.Status) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("status IN ?", statuses).
		Count(&count).Error
	return count, translate(err, "Room")
}

// WithTx 使用事务
func (r *roomRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &roomRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
