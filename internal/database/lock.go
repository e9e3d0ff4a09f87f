package database

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wfunc/tictactoe/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lockAttempts = 30
	lockStaleAge = 5 * time.Minute
)

// acquireMigrationLock 以独占方式创建锁文件，避免多个进程同时迁移同一个SQLite文件
func acquireMigrationLock(dbPath string) (*os.File, error) {
	lockPath := dbPath + ".migration.lock"

	for i := 0; i < lockAttempts; i++ {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
		if err == nil {
			logger.Debug("获取迁移锁成功", zap.String("lock", lockPath))
			return lockFile, nil
		}

		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > lockStaleAge {
			logger.Warn("迁移锁文件过期，尝试删除", zap.String("lock", lockPath))
			os.Remove(lockPath)
			continue
		}

		logger.Debug("等待迁移锁...", zap.Int("attempt", i+1))
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("无法获取迁移锁，可能有其他进程正在执行迁移")
}

// releaseMigrationLock 释放迁移锁
func releaseMigrationLock(lockFile *os.File) {
	if lockFile == nil {
		return
	}
	lockPath := lockFile.Name()
	lockFile.Close()
	os.Remove(lockPath)
	logger.Debug("释放迁移锁", zap.String("lock", lockPath))
}

// sqliteFilePath 返回SQLite数据库文件路径，内存库或非SQLite返回空串
func sqliteFilePath(db *gorm.DB) string {
	if db == nil || !isSQLite(db) {
		return ""
	}
	sqlDB, err := db.DB()
	if err != nil {
		return ""
	}

	var (
		seq        int
		name, file string
	)
	if err := sqlDB.QueryRow("PRAGMA database_list").Scan(&seq, &name, &file); err != nil {
		return ""
	}
	if file == "" || strings.Contains(file, ":memory:") {
		return ""
	}
	return file
}
