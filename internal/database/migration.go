package database

import (
	"fmt"

	"github.com/wfunc/tictactoe/internal/logger"
	"github.com/wfunc/tictactoe/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// indexes 额外的组合索引
var indexes = []struct {
	name string
	sql  string
}{
	{"idx_games_status_created", "CREATE INDEX IF NOT EXISTS idx_games_status_created ON games(status, created_at)"},
	{"idx_games_player1_finished", "CREATE INDEX IF NOT EXISTS idx_games_player1_finished ON games(player1_id, finished_at)"},
	{"idx_games_player2_finished", "CREATE INDEX IF NOT EXISTS idx_games_player2_finished ON games(player2_id, finished_at)"},
	{"idx_rooms_public_status", "CREATE INDEX IF NOT EXISTS idx_rooms_public_status ON rooms(is_public, status)"},
}

// AutoMigrate 迁移全局数据库
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate 自动迁移表结构并创建索引
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("数据库未初始化")
	}

	if path := sqliteFilePath(db); path != "" {
		lockFile, err := acquireMigrationLock(path)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	logger.Info("开始数据库迁移...")

	for _, model := range models.AllModels() {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	// MySQL 不支持 CREATE INDEX IF NOT EXISTS，交给 gorm 的 Migrator 判断
	for _, idx := range indexes {
		if db.Dialector.Name() == "mysql" {
			continue
		}
		if err := db.Exec(idx.sql).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", idx.name), zap.Error(err))
		}
	}

	logger.Info("数据库迁移完成")
	return nil
}

// DropAll 删除全部表（测试与重置用）
func DropAll(db *gorm.DB) error {
	all := models.AllModels()
	// 逆序删除，先删依赖方
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return err
		}
	}
	return nil
}
