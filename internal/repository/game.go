package repository

import (
	"context"
	"time"

	apperrors "github.com/wfunc/tictactoe/internal/errors"
	"github.com/wfunc/tictactoe/internal/models"
	"gorm.io/gorm"
)

// GameRepository 对局仓储接口
type GameRepository interface {
	BaseRepository
	Create(ctx context.Context, game *models.Game) error
	FindByID(ctx context.Context, id uint) (*models.Game, error)
	FindByRoomID(ctx context.Context, roomID uint) (*models.Game, error)
	SeatPlayer2(ctx context.Context, gameID, playerID uint, at time.Time) error
	SaveState(ctx context.Context, game *models.Game, expectedMoves int) error
	List(ctx context.Context, p *Pagination, status models.Status) ([]*models.Game, error)
	RecentFinishedForPlayer(ctx context.Context, playerID uint, limit int) ([]*models.Game, error)
	Count(ctx context.Context, status models.Status) (int64, error)
}

type gameRepo struct {
	*BaseRepo
}

// NewGameRepository 创建对局仓储
func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

func withPlayers(db *gorm.DB) *gorm.DB {
	return db.Preload("Player1").Preload("Player2").Preload("Winner")
}

// Create 创建对局
func (r *gameRepo) Create(ctx context.Context, game *models.Game) error {
	return translate(r.db.WithContext(ctx).Create(game).Error, "Game")
}

// FindByID 根据ID查找对局，带出双方与胜者
func (r *gameRepo) FindByID(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	if err := r.db.WithContext(ctx).Scopes(withPlayers).First(&game, id).Error; err != nil {
		return nil, translate(err, "Game")
	}
	return &game, nil
}

// FindByRoomID 查找房间的对局
func (r *gameRepo) FindByRoomID(ctx context.Context, roomID uint) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).
		Scopes(withPlayers).
		Where("room_id = ?", roomID).
		First(&game).Error
	if err != nil {
		return nil, translate(err, "Game")
	}
	return &game, nil
}

// SeatPlayer2 填入第二位玩家并开局，只对仍在等待且二号位为空的对局生效
func (r *gameRepo) SeatPlayer2(ctx context.Context, gameID, playerID uint, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ? AND status = ? AND player2_id IS NULL", gameID, models.StatusWaiting).
		Updates(map[string]interface{}{
			"player2_id": playerID,
			"status":     models.StatusInProgress,
			"started_at": at,
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.ErrDatabaseUpdate)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrGameStateError, "seat already taken")
	}
	return nil
}

// SaveState 乐观更新对局状态。
// 只有对局仍在进行且步数等于 expectedMoves 时才写入，否则返回 ErrGameStateError。
func (r *gameRepo) SaveState(ctx context.Context, game *models.Game, expectedMoves int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ? AND status = ? AND total_moves = ?", game.ID, models.StatusInProgress, expectedMoves).
		Updates(map[string]interface{}{
			"board_state":  game.BoardState,
			"current_turn": game.CurrentTurn,
			"total_moves":  game.TotalMoves,
			"status":       game.Status,
			"result":       game.Result,
			"winner_id":    game.WinnerID,
			"finished_at":  game.FinishedAt,
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.ErrDatabaseUpdate)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrGameStateError, "Game state changed, retry")
	}
	return nil
}

// List 分页列出对局，最新的在前，status 为空时不过滤
func (r *gameRepo) List(ctx context.Context, p *Pagination, status models.Status) ([]*models.Game, error) {
	var games []*models.Game
	query := r.db.WithContext(ctx).Scopes(withPlayers)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.
		Order("created_at desc").
		Order("id desc").
		Scopes(Paginate(p)).
		Find(&games).Error
	return games, translate(err, "Game")
}

// RecentFinishedForPlayer 玩家最近结束的对局
func (r *gameRepo) RecentFinishedForPlayer(ctx context.Context, playerID uint, limit int) ([]*models.Game, error) {
	var games []*models.Game
	err := r.db.WithContext(ctx).
		Scopes(withPlayers).
		Where("(player1_id = ? OR player2_id = ?) AND status = ?", playerID, playerID, models.StatusFinished).
		Order("finished_at desc").
		Order("id desc").
		Limit(limit).
		Find(&games).Error
	return games, translate(err, "Game")
}

// Count 对局数量，status 为空时统计全部
func (r *gameRepo) Count(ctx context.Context, status models.Status) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Game{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, translate(err, "Game")
}

// WithTx 使用事务
func (r *gameRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &gameRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
