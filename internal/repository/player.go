package repository

import (
	"context"
	"time"

	apperrors "github.com/wfunc/tictactoe/internal/errors"
	"github.com/wfunc/tictactoe/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Outcome 单个玩家在一局中的结果
type Outcome int

const (
	OutcomeWin Outcome = iota + 1
	OutcomeLoss
	OutcomeDraw
)

// PlayerRepository 玩家仓储接口
type PlayerRepository interface {
	BaseRepository
	Create(ctx context.Context, player *models.Player) error
	FindByID(ctx context.Context, id uint) (*models.Player, error)
	FindByUsername(ctx context.Context, username string) (*models.Player, error)
	FindOrCreate(ctx context.Context, username string) (*models.Player, error)
	List(ctx context.Context, p *Pagination) ([]*models.Player, error)
	TouchLastSeen(ctx context.Context, id uint) error
	ApplyOutcome(ctx context.Context, id uint, outcome Outcome) error
	Ranking(ctx context.Context, limit int) ([]*models.Player, error)
	MostWins(ctx context.Context, limit int) ([]*models.Player, error)
	BestWinRate(ctx context.Context, minGames, limit int) ([]*models.Player, error)
	MostActive(ctx context.Context, limit int) ([]*models.Player, error)
	Count(ctx context.Context) (int64, error)
}

type playerRepo struct {
	*BaseRepo
}

// NewPlayerRepository 创建玩家仓储
func NewPlayerRepository(db *gorm.DB) PlayerRepository {
	return &playerRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建玩家，用户名重复时返回 ErrAlreadyExists
func (r *playerRepo) Create(ctx context.Context, player *models.Player) error {
	return translate(r.db.WithContext(ctx).Create(player).Error, "Player")
}

// FindByID 根据ID查找玩家
func (r *playerRepo) FindByID(ctx context.Context, id uint) (*models.Player, error) {
	var player models.Player
	if err := r.db.WithContext(ctx).First(&player, id).Error; err != nil {
		return nil, translate(err, "Player")
	}
	return &player, nil
}

// FindByUsername 根据用户名查找玩家
func (r *playerRepo) FindByUsername(ctx context.Context, username string) (*models.Player, error) {
	var player models.Player
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&player).Error; err != nil {
		return nil, translate(err, "Player")
	}
	return &player, nil
}

// FindOrCreate 按用户名查找玩家，不存在则创建。
// 插入冲突时什么都不做，再按用户名读取，并发创建者最终拿到同一行。
func (r *playerRepo) FindOrCreate(ctx context.Context, username string) (*models.Player, error) {
	if username == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "username is required")
	}

	player := &models.Player{Username: username}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoNothing: true,
		}).
		Create(player).Error
	if err != nil {
		return nil, translate(err, "Player")
	}

	return r.FindByUsername(ctx, username)
}

// List 分页列出玩家，按ID升序
func (r *playerRepo) List(ctx context.Context, p *Pagination) ([]*models.Player, error) {
	var players []*models.Player
	err := r.db.WithContext(ctx).
		Order("id asc").
		Scopes(Paginate(p)).
		Find(&players).Error
	return players, translate(err, "Player")
}

// TouchLastSeen 刷新最近在线时间
func (r *playerRepo) TouchLastSeen(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("id = ?", id).
		Update("last_seen", time.Now()).Error
	return translate(err, "Player")
}

// ApplyOutcome 以原子自增方式累计战绩
func (r *playerRepo) ApplyOutcome(ctx context.Context, id uint, outcome Outcome) error {
	updates := map[string]interface{}{
		"total_games": gorm.Expr("total_games + ?", 1),
	}
	switch outcome {
	case OutcomeWin:
		updates["wins"] = gorm.Expr("wins + ?", 1)
	case OutcomeLoss:
		updates["losses"] = gorm.Expr("losses + ?", 1)
	case OutcomeDraw:
		updates["draws"] = gorm.Expr("draws + ?", 1)
	default:
		return apperrors.Newf(apperrors.ErrInvalidParam, "unknown outcome %d", outcome)
	}

	result := r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.ErrDatabaseUpdate)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrNotFound, "Player not found")
	}
	return nil
}

// Ranking 排行榜：胜场降序，总场次降序
func (r *playerRepo) Ranking(ctx context.Context, limit int) ([]*models.Player, error) {
	var players []*models.Player
	err := r.db.WithContext(ctx).
		Order("wins desc").
		Order("total_games desc").
		Order("id asc").
		Limit(limit).
		Find(&players).Error
	return players, translate(err, "Player")
}

// MostWins 胜场最多
func (r *playerRepo) MostWins(ctx context.Context, limit int) ([]*models.Player, error) {
	var players []*models.Player
	err := r.db.WithContext(ctx).
		Order("wins desc").
		Order("id asc").
		Limit(limit).
		Find(&players).Error
	return players, translate(err, "Player")
}

// BestWinRate 胜率最高，只统计场次不少于 minGames 的玩家
func (r *playerRepo) BestWinRate(ctx context.Context, minGames, limit int) ([]*models.Player, error) {
	var players []*models.Player
	err := r.db.WithContext(ctx).
		Where("total_games >= ?", minGames).
		Order("(wins * 1.0 / total_games) desc").
		Order("id asc").
		Limit(limit).
		Find(&players).Error
	return players, translate(err, "Player")
}

// MostActive 场次最多
func (r *playerRepo) MostActive(ctx context.Context, limit int) ([]*models.Player, error) {
	var players []*models.Player
	err := r.db.WithContext(ctx).
		Order("total_games desc").
		Order("id asc").
		Limit(limit).
		Find(&players).Error
	return players, translate(err, "Player")
}

// Count 玩家总数
func (r *playerRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Player{}).Count(&count).Error
	return count, translate(err, "Player")
}

// WithTx 使用事务
func (r *playerRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &playerRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
