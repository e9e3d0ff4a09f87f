package repository

import (
	"context"

	"github.com/wfunc/tictactoe/internal/models"
	"gorm.io/gorm"
)

// MoveRepository 落子记录仓储接口
type MoveRepository interface {
	BaseRepository
	Create(ctx context.Context, move *models.GameMove) error
	ListByGame(ctx context.Context, gameID uint) ([]*models.GameMove, error)
}

type moveRepo struct {
	*BaseRepo
}

// NewMoveRepository 创建落子记录仓储
func NewMoveRepository(db *gorm.DB) MoveRepository {
	return &moveRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 记录一步落子，(game_id, move_number) 唯一
func (r *moveRepo) Create(ctx context.Context, move *models.GameMove) error {
	return translate(r.db.WithContext(ctx).Create(move).Error, "Move")
}

// ListByGame 按步序列出一局的全部落子
func (r *moveRepo) ListByGame(ctx context.Context, gameID uint) ([]*models.GameMove, error) {
	var moves []*models.GameMove
	err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("move_number asc").
		Find(&moves).Error
	return moves, translate(err, "Move")
}

// WithTx 使用事务
func (r *moveRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &moveRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
