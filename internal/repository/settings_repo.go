package repository

import (
	"context"
	"errors"
	"fmt"

	"rentsystem/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// EnsureExists 建库时初始化单行配置，已存在则不动
func (r *SettingsRepository) EnsureExists(ctx context.Context, passwordHash string) error {
	settings := &model.SystemSettings{
		ID:                 model.SettingsRowID,
		LastOrderNumber:    0,
		ReportPasswordHash: passwordHash,
		MaxAccountsPerPage: 50,
		AutoBackup:         true,
		BackupInterval:     24,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(settings).Error
}

func (r *SettingsRepository) Get(ctx context.Context) (*model.SystemSettings, error) {
	var settings model.SystemSettings
	err := r.db.WithContext(ctx).Where("id = ?", model.SettingsRowID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("系统配置未初始化")
		}
		return nil, err
	}
	return &settings, nil
}

// NextOrderNumber 取下一个订单号
// 在调用方事务内对配置行加锁自增，保证并发创建时订单号唯一且严格递增
func (r *SettingsRepository) NextOrderNumber(ctx context.Context, tx *gorm.DB) (string, error) {
	var settings model.SystemSettings
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", model.SettingsRowID).
		First(&settings).Error; err != nil {
		return "", err
	}

	next := settings.LastOrderNumber + 1
	if err := tx.WithContext(ctx).
		Model(&model.SystemSettings{}).
		Where("id = ?", model.SettingsRowID).
		Update("last_order_number", next).Error; err != nil {
		return "", err
	}

	return FormatOrderNumber(next), nil
}

// UpdateReportPasswordHash 更新报表密码哈希
func (r *SettingsRepository) UpdateReportPasswordHash(ctx context.Context, hash string) error {
	return r.db.WithContext(ctx).
		Model(&model.SystemSettings{}).
		Where("id = ?", model.SettingsRowID).
		Update("report_password_hash", hash).Error
}

// FormatOrderNumber 订单号格式：NO. + 6位补零计数
func FormatOrderNumber(n int64) string {
	return fmt.Sprintf("NO.%06d", n)
}
