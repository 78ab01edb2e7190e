package model

import (
	"time"
)

// SystemSettings 系统配置单行表
// 订单号计数器和报表密码都在这一行上，建库时初始化
type SystemSettings struct {
	ID                 int64     `gorm:"primaryKey" json:"id"`
	LastOrderNumber    int64     `gorm:"not null;default:0" json:"lastOrderNumber"`      // 订单号计数器
	ReportPasswordHash string    `gorm:"type:varchar(128);not null" json:"-"`            // bcrypt 哈希，不下发
	MaxAccountsPerPage int       `gorm:"not null;default:50" json:"maxAccountsPerPage"`
	AutoBackup         bool      `gorm:"not null;default:true" json:"autoBackup"`
	BackupInterval     int       `gorm:"not null;default:24" json:"backupInterval"` // 小时
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (SystemSettings) TableName() string {
	return "system_settings"
}

// SettingsRowID 单行配置固定主键
const SettingsRowID = int64(1)
