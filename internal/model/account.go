package model

import (
	"time"
)

// 账号生命周期状态
// inventory（库存）→ rented（出租中）→ completed（已结单），不允许回退
const (
	StatusInventory = "inventory"
	StatusRented    = "rented"
	StatusCompleted = "completed"
)

// ValidStatusTransitions 单步流转规则
// 批量改状态接口是管理员强制覆盖，不走这张表
var ValidStatusTransitions = map[string][]string{
	StatusInventory: {StatusRented},
	StatusRented:    {StatusCompleted},
}

func CanTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidStatusTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// IsValidStatus 状态枚举校验
func IsValidStatus(status string) bool {
	return status == StatusInventory || status == StatusRented || status == StatusCompleted
}

// RentalAccount 租号记录表
// 一行对应一个游戏账号的一次报单
type RentalAccount struct {
	ID          string `gorm:"type:varchar(64);primaryKey" json:"id"`
	OrderNumber string `gorm:"type:varchar(32);uniqueIndex;not null" json:"orderNumber"` // 订单号 NO.xxxxxx，全局递增

	// 游戏属性
	PureCoins            int `gorm:"not null" json:"pureCoins"`      // 纯币数量
	StaminaLevel         int `gorm:"not null" json:"staminaLevel"`   // 体力等级 1-7
	InsuranceSlots       int `gorm:"not null" json:"insuranceSlots"` // 保险格子 2/4/6/9
	AccountLevel         int `gorm:"not null" json:"accountLevel"`   // 账号等级 1-60
	AwmAmmo              int `gorm:"not null;default:0" json:"awmAmmo"`
	Ammo76251            int `gorm:"not null;default:0" json:"ammo76251"`
	Ammo76254            int `gorm:"not null;default:0" json:"ammo76254"`
	Ammo68               int `gorm:"not null;default:0" json:"ammo68"`
	FullDurabilityHelmet int `gorm:"not null;default:0" json:"fullDurabilityHelmet"` // 满耐久6头
	FullDurabilityArmor  int `gorm:"not null;default:0" json:"fullDurabilityArmor"`  // 满耐久6甲

	// 描述信息
	AcceptAccountInfo string `gorm:"type:varchar(64)" json:"acceptAccountInfo"` // 是否接受账密
	HasPaidKnifeSkin  string `gorm:"type:varchar(64)" json:"hasPaidKnifeSkin"`  // 付费刀皮
	UntouchableItems  string `gorm:"type:text" json:"untouchableItems"`         // 仓库限制
	OwnerNotes        string `gorm:"type:text" json:"ownerNotes"`               // 号主备注
	WechatID          string `gorm:"type:varchar(64);not null" json:"wechatId"` // 号主微信

	// 生命周期
	Status       string  `gorm:"type:varchar(20);index;not null" json:"status"`
	BossWechatID string  `gorm:"type:varchar(64)" json:"bossWechatId"` // 老板微信，出租时填写
	BaseCost     float64 `gorm:"not null;default:0" json:"baseCost"`   // 基础成本
	BasePrice    float64 `gorm:"not null;default:0" json:"basePrice"`  // 基础售价
	ExtraCost    float64 `gorm:"not null;default:0" json:"extraCost"`  // 增值成本
	ExtraPrice   float64 `gorm:"not null;default:0" json:"extraPrice"` // 增值售价

	// 时间信息
	// DateStr/DayNumber/TimeStr 在创建时落库，之后不再重算
	DateStr        string     `gorm:"type:varchar(16);index" json:"dateStr"`  // 2024/01/15
	DayNumber      string     `gorm:"type:varchar(8)" json:"dayNumber"`       // 当日第几单，补零到2位
	TimeStr        string     `gorm:"type:varchar(16)" json:"timeStr"`        // 14:30:52
	CreatedAt      time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
	LastRentedDate *time.Time `json:"lastRentedDate,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	// 自增序号仅用于保持录入顺序，不对外暴露
	Seq int64 `gorm:"autoIncrement;uniqueIndex" json:"-"`
}

func (RentalAccount) TableName() string {
	return "rental_account"
}

// Profit 单条利润：(售价合计) - (成本合计)
func (a *RentalAccount) Profit() float64 {
	return (a.BasePrice + a.ExtraPrice) - (a.BaseCost + a.ExtraCost)
}
