package repository

import (
	"errors"

	apperrors "github.com/wfunc/tictactoe/internal/errors"
	"gorm.io/gorm"
)

// BaseRepository 基础仓储接口
type BaseRepository interface {
	// GetDB 获取数据库实例
	GetDB() *gorm.DB
	// WithTx 使用事务
	WithTx(tx *gorm.DB) BaseRepository
}

// Pagination 分页参数（skip/limit 形式）
type Pagination struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// NewPagination 创建分页参数，limit 超出范围时取默认值或上限
func NewPagination(skip, limit, defaultLimit int) *Pagination {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > 500 {
		limit = 500
	}
	return &Pagination{Skip: skip, Limit: limit}
}

// Paginate 分页查询
func Paginate(p *Pagination) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p == nil {
			return db
		}
		return db.Offset(p.Skip).Limit(p.Limit)
	}
}

// BaseRepo 基础仓储实现
type BaseRepo struct {
	db *gorm.DB
}

// NewBaseRepo 创建基础仓储
func NewBaseRepo(db *gorm.DB) *BaseRepo {
	return &BaseRepo{db: db}
}

// GetDB 获取数据库实例
func (r *BaseRepo) GetDB() *gorm.DB {
	return r.db
}

// translate 将gorm错误转换为应用错误
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.New(apperrors.ErrNotFound, what+" not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Wrap(err, apperrors.ErrAlreadyExists, what+" already exists")
	default:
		return apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
}
