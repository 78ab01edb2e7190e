package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentsystem/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAccountNotFound = errors.New("账号不存在")

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, tx *gorm.DB, account *model.RentalAccount) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(account).Error
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*model.RentalAccount, error) {
	var account model.RentalAccount
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetByIDForUpdate 行锁读取，生命周期流转前先锁住这一行
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*model.RentalAccount, error) {
	var account model.RentalAccount
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) Save(ctx context.Context, tx *gorm.DB, account *model.RentalAccount) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Save(account).Error
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.RentalAccount{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// escapeLike 转义 LIKE 通配符，搜索词按字面匹配
// 微信号里常见下划线，不转义的话 a_c 会误匹配 abc
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// ListFilter 列表查询条件
type ListFilter struct {
	Status string // 枚举值或 "all"/空
	Search string
	Page   int
	Limit  int
}

// List 按录入顺序分页，支持状态筛选和模糊搜索
// 搜索覆盖纯币数量（转字符串）、号主微信、老板微信、订单号，不区分大小写
func (r *AccountRepository) List(ctx context.Context, filter ListFilter) ([]*model.RentalAccount, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.RentalAccount{})

	if filter.Status != "" && filter.Status != "all" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.Search != "" {
		term := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		query = query.Where(
			"CAST(pure_coins AS CHAR) LIKE ? OR LOWER(wechat_id) LIKE ? OR LOWER(boss_wechat_id) LIKE ? OR LOWER(order_number) LIKE ?",
			term, term, term, term,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []*model.RentalAccount
	err := query.
		Order("seq ASC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&accounts).Error

	return accounts, total, err
}

// ListByStatus 导出和报表用，不分页，保持录入顺序
func (r *AccountRepository) ListByStatus(ctx context.Context, status string) ([]*model.RentalAccount, error) {
	query := r.db.WithContext(ctx).Model(&model.RentalAccount{})
	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}

	var accounts []*model.RentalAccount
	err := query.Order("seq ASC").Find(&accounts).Error
	return accounts, err
}

// CountByDateStr 当日已有单数，用于派生 dayNumber，必须在创建事务内调用
func (r *AccountRepository) CountByDateStr(ctx context.Context, tx *gorm.DB, dateStr string) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var n int64
	err := tx.WithContext(ctx).
		Model(&model.RentalAccount{}).
		Where("date_str = ?", dateStr).
		Count(&n).Error
	return n, err
}

// CountByStatus 各状态数量统计
func (r *AccountRepository) CountByStatus(ctx context.Context) (total, inventory, rented, completed int64, err error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err = r.db.WithContext(ctx).
		Model(&model.RentalAccount{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return 0, 0, 0, 0, err
	}

	for _, rw := range rows {
		total += rw.N
		switch rw.Status {
		case model.StatusInventory:
			inventory = rw.N
		case model.StatusRented:
			rented = rw.N
		case model.StatusCompleted:
			completed = rw.N
		}
	}
	return total, inventory, rented, completed, nil
}

// BatchUpdateStatus 批量强制覆盖状态，不校验流转规则
// 返回实际更新的行数，不存在的ID直接跳过
func (r *AccountRepository) BatchUpdateStatus(ctx context.Context, tx *gorm.DB, ids []string, status string) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.RentalAccount{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// BatchDelete 批量删除，返回删除行数
func (r *AccountRepository) BatchDelete(ctx context.Context, ids []string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&model.RentalAccount{})
	return result.RowsAffected, result.Error
}
