package job

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rentsystem/internal/config"
	"rentsystem/internal/repository"
	"rentsystem/pkg/logger"

	"gorm.io/gorm"
)

// BackupJob 自动备份任务
// 开启时按配置间隔把全量账号数据落成 JSON 文件
type BackupJob struct {
	db          *gorm.DB
	accountRepo *repository.AccountRepository
	cfg         *config.Config
}

func NewBackupJob(db *gorm.DB, cfg *config.Config) *BackupJob {
	return &BackupJob{
		db:          db,
		accountRepo: repository.NewAccountRepository(db),
		cfg:         cfg,
	}
}

func (j *BackupJob) Start(ctx context.Context) {
	if !j.cfg.Business.AutoBackup {
		logger.Log.Info("[BackupJob] 自动备份未开启")
		return
	}

	interval := time.Duration(j.cfg.Business.BackupIntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	logger.Log.Infow("[BackupJob] 自动备份任务启动", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("[BackupJob] 收到停止信号，任务退出")
			return
		case <-ticker.C:
			if err := j.runOnce(ctx); err != nil {
				logger.Log.Errorw("[BackupJob] 备份失败", "err", err)
			}
		}
	}
}

func (j *BackupJob) runOnce(ctx context.Context) error {
	accounts, err := j.accountRepo.ListByStatus(ctx, "all")
	if err != nil {
		return fmt.Errorf("读取账号数据失败: %w", err)
	}

	if err := os.MkdirAll(j.cfg.Business.BackupDir, 0o755); err != nil {
		return fmt.Errorf("创建备份目录失败: %w", err)
	}

	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return err
	}

	filename := filepath.Join(j.cfg.Business.BackupDir,
		fmt.Sprintf("accounts_%s.json", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("写入备份文件失败: %w", err)
	}

	logger.Log.Infow("[BackupJob] 备份完成", "file", filename, "count", len(accounts))
	return nil
}
