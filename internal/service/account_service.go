package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rentsystem/internal/config"
	"rentsystem/internal/infrastructure/lock"
	"rentsystem/internal/model"
	"rentsystem/internal/repository"
	"rentsystem/pkg/idgen"
	"rentsystem/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountService 账号生命周期引擎
// 报单、改单、出租、结单、删除、批量操作、列表查询都在这里
type AccountService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cfg          *config.Config
	accountRepo  *repository.AccountRepository
	settingsRepo *repository.SettingsRepository
	outboxRepo   *repository.OutboxRepository
}

func NewAccountService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *AccountService {
	return &AccountService{
		db:           db,
		redisClient:  redisClient,
		cfg:          cfg,
		accountRepo:  repository.NewAccountRepository(db),
		settingsRepo: repository.NewSettingsRepository(db),
		outboxRepo:   repository.NewOutboxRepository(db),
	}
}

// CreateAccountRequest 报单请求
type CreateAccountRequest struct {
	PureCoins      int `json:"pureCoins"`
	StaminaLevel   int `json:"staminaLevel"`
	InsuranceSlots int `json:"insuranceSlots"`
	AccountLevel   int `json:"accountLevel"`

	AwmAmmo              int `json:"awmAmmo"`
	Ammo76251            int `json:"ammo76251"`
	Ammo76254            int `json:"ammo76254"`
	Ammo68               int `json:"ammo68"`
	FullDurabilityHelmet int `json:"fullDurabilityHelmet"`
	FullDurabilityArmor  int `json:"fullDurabilityArmor"`

	AcceptAccountInfo string `json:"acceptAccountInfo"`
	HasPaidKnifeSkin  string `json:"hasPaidKnifeSkin"`
	UntouchableItems  string `json:"untouchableItems"`
	OwnerNotes        string `json:"ownerNotes"`
	WechatID          string `json:"wechatId"`
}

// validateCreate 报单校验，返回第一个不合法字段的错误
func validateCreate(req *CreateAccountRequest) error {
	switch {
	case req.PureCoins == 0:
		return newValidationError("pureCoins", "请填写所有必填字段")
	case req.StaminaLevel == 0:
		return newValidationError("staminaLevel", "请填写所有必填字段")
	case req.InsuranceSlots == 0:
		return newValidationError("insuranceSlots", "请填写所有必填字段")
	case req.AccountLevel == 0:
		return newValidationError("accountLevel", "请填写所有必填字段")
	case req.WechatID == "":
		return newValidationError("wechatId", "请填写所有必填字段")
	}

	if req.PureCoins < 0 {
		return newValidationError("pureCoins", "纯币数量必须大于0")
	}
	if req.StaminaLevel < 1 || req.StaminaLevel > 7 {
		return newValidationError("staminaLevel", "体力等级必须在1-7之间")
	}
	if req.AccountLevel < 1 || req.AccountLevel > 60 {
		return newValidationError("accountLevel", "账号等级必须在1-60之间")
	}
	switch req.InsuranceSlots {
	case 2, 4, 6, 9:
	default:
		return newValidationError("insuranceSlots", "保险格子只能是2、4、6或9")
	}
	return nil
}

// Create 报单
// 订单号与当日序号的派生要读当前计数，先抢全局报单锁，
// 再在一个事务里完成 计数器自增 + 当日计数 + 落库 + 事件
func (s *AccountService) Create(ctx context.Context, req *CreateAccountRequest) (*model.RentalAccount, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	createLock := lock.NewCreateLock(s.redisClient, uuid.NewString())
	if err := createLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer createLock.Unlock(ctx)

	now := time.Now()
	dateStr := now.Format("2006/01/02")
	timeStr := now.Format("15:04:05")

	var account *model.RentalAccount
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderNumber, err := s.settingsRepo.NextOrderNumber(ctx, tx)
		if err != nil {
			return fmt.Errorf("生成订单号失败: %w", err)
		}

		todayCount, err := s.accountRepo.CountByDateStr(ctx, tx, dateStr)
		if err != nil {
			return fmt.Errorf("统计当日单数失败: %w", err)
		}

		account = &model.RentalAccount{
			ID:          idgen.GenerateAccountID(),
			OrderNumber: orderNumber,

			PureCoins:      req.PureCoins,
			StaminaLevel:   req.StaminaLevel,
			InsuranceSlots: req.InsuranceSlots,
			AccountLevel:   req.AccountLevel,

			AwmAmmo:              req.AwmAmmo,
			Ammo76251:            req.Ammo76251,
			Ammo76254:            req.Ammo76254,
			Ammo68:               req.Ammo68,
			FullDurabilityHelmet: req.FullDurabilityHelmet,
			FullDurabilityArmor:  req.FullDurabilityArmor,

			AcceptAccountInfo: req.AcceptAccountInfo,
			HasPaidKnifeSkin:  req.HasPaidKnifeSkin,
			UntouchableItems:  req.UntouchableItems,
			OwnerNotes:        req.OwnerNotes,
			WechatID:          req.WechatID,

			Status:    model.StatusInventory,
			BaseCost:  0,
			BasePrice: 0,
			ExtraCost: 0,
			ExtraPrice: 0,

			DateStr:   dateStr,
			DayNumber: fmt.Sprintf("%02d", todayCount+1),
			TimeStr:   timeStr,
			CreatedAt: now,
		}

		if err := s.accountRepo.Create(ctx, tx, account); err != nil {
			return fmt.Errorf("保存账号失败: %w", err)
		}

		return s.writeEvent(ctx, tx, model.EventAccountCreated, account)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Infow("报单成功", "orderNumber", account.OrderNumber, "wechatId", account.WechatID)
	return account, nil
}

// UpdateAccountRequest 改单请求，只合并出现的字段
// 与报单不同，这里不做范围校验，内部修单允许任意覆盖
type UpdateAccountRequest struct {
	PureCoins      *int `json:"pureCoins"`
	StaminaLevel   *int `json:"staminaLevel"`
	InsuranceSlots *int `json:"insuranceSlots"`
	AccountLevel   *int `json:"accountLevel"`

	AwmAmmo              *int `json:"awmAmmo"`
	Ammo76251            *int `json:"ammo76251"`
	Ammo76254            *int `json:"ammo76254"`
	Ammo68               *int `json:"ammo68"`
	FullDurabilityHelmet *int `json:"fullDurabilityHelmet"`
	FullDurabilityArmor  *int `json:"fullDurabilityArmor"`

	AcceptAccountInfo *string `json:"acceptAccountInfo"`
	HasPaidKnifeSkin  *string `json:"hasPaidKnifeSkin"`
	UntouchableItems  *string `json:"untouchableItems"`
	OwnerNotes        *string `json:"ownerNotes"`
	WechatID          *string `json:"wechatId"`

	Status       *string       `json:"status"`
	BossWechatID *string       `json:"bossWechatId"`
	BaseCost     *model.Amount `json:"baseCost"`
	BasePrice    *model.Amount `json:"basePrice"`
	ExtraCost    *model.Amount `json:"extraCost"`
	ExtraPrice   *model.Amount `json:"extraPrice"`
}

func applyUpdate(account *model.RentalAccount, req *UpdateAccountRequest) {
	if req.PureCoins != nil {
		account.PureCoins = *req.PureCoins
	}
	if req.StaminaLevel != nil {
		account.StaminaLevel = *req.StaminaLevel
	}
	if req.InsuranceSlots != nil {
		account.InsuranceSlots = *req.InsuranceSlots
	}
	if req.AccountLevel != nil {
		account.AccountLevel = *req.AccountLevel
	}
	if req.AwmAmmo != nil {
		account.AwmAmmo = *req.AwmAmmo
	}
	if req.Ammo76251 != nil {
		account.Ammo76251 = *req.Ammo76251
	}
	if req.Ammo76254 != nil {
		account.Ammo76254 = *req.Ammo76254
	}
	if req.Ammo68 != nil {
		account.Ammo68 = *req.Ammo68
	}
	if req.FullDurabilityHelmet != nil {
		account.FullDurabilityHelmet = *req.FullDurabilityHelmet
	}
	if req.FullDurabilityArmor != nil {
		account.FullDurabilityArmor = *req.FullDurabilityArmor
	}
	if req.AcceptAccountInfo != nil {
		account.AcceptAccountInfo = *req.AcceptAccountInfo
	}
	if req.HasPaidKnifeSkin != nil {
		account.HasPaidKnifeSkin = *req.HasPaidKnifeSkin
	}
	if req.UntouchableItems != nil {
		account.UntouchableItems = *req.UntouchableItems
	}
	if req.OwnerNotes != nil {
		account.OwnerNotes = *req.OwnerNotes
	}
	if req.WechatID != nil {
		account.WechatID = *req.WechatID
	}
	if req.Status != nil {
		account.Status = *req.Status
	}
	if req.BossWechatID != nil {
		account.BossWechatID = *req.BossWechatID
	}
	if req.BaseCost != nil {
		account.BaseCost = req.BaseCost.Float64()
	}
	if req.BasePrice != nil {
		account.BasePrice = req.BasePrice.Float64()
	}
	if req.ExtraCost != nil {
		account.ExtraCost = req.ExtraCost.Float64()
	}
	if req.ExtraPrice != nil {
		account.ExtraPrice = req.ExtraPrice.Float64()
	}
}

// Update 改单，出现的字段直接覆盖，缺席的字段不动
func (s *AccountService) Update(ctx context.Context, id string, req *UpdateAccountRequest) (*model.RentalAccount, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyUpdate(account, req)
	account.UpdatedAt = time.Now()

	if err := s.accountRepo.Save(ctx, nil, account); err != nil {
		return nil, fmt.Errorf("保存账号失败: %w", err)
	}
	return account, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*model.RentalAccount, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// RentRequest 出租请求
type RentRequest struct {
	BossWechatID string       `json:"bossWechatId"`
	BaseCost     model.Amount `json:"baseCost"`
	BasePrice    model.Amount `json:"basePrice"`
}

// applyRent 按流转表校验后写入出租字段
func applyRent(account *model.RentalAccount, req *RentRequest, now time.Time) error {
	if !model.CanTransitionTo(account.Status, model.StatusRented) {
		return &TransitionError{Message: "只能出租库存状态的账号"}
	}

	account.Status = model.StatusRented
	account.BossWechatID = req.BossWechatID
	account.BaseCost = req.BaseCost.Float64()
	account.BasePrice = req.BasePrice.Float64()
	account.LastRentedDate = &now
	account.UpdatedAt = now
	return nil
}

// Rent 出租，只有库存状态的账号可以出租
func (s *AccountService) Rent(ctx context.Context, id string, req *RentRequest) (*model.RentalAccount, error) {
	if req.BossWechatID == "" {
		return nil, newValidationError("bossWechatId", "请输入老板微信号")
	}

	var account *model.RentalAccount
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		account, err = s.accountRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := applyRent(account, req, time.Now()); err != nil {
			return err
		}

		if err := s.accountRepo.Save(ctx, tx, account); err != nil {
			return fmt.Errorf("保存账号失败: %w", err)
		}

		return s.writeEvent(ctx, tx, model.EventAccountRented, account)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Infow("账号出租成功", "orderNumber", account.OrderNumber, "bossWechatId", account.BossWechatID)
	return account, nil
}

// CompleteRequest 结单请求
type CompleteRequest struct {
	ExtraCost  model.Amount `json:"extraCost"`
	ExtraPrice model.Amount `json:"extraPrice"`
}

// applyComplete 按流转表校验后写入结算字段
func applyComplete(account *model.RentalAccount, req *CompleteRequest, now time.Time) error {
	if !model.CanTransitionTo(account.Status, model.StatusCompleted) {
		return &TransitionError{Message: "只能结算出租中的账号"}
	}

	account.Status = model.StatusCompleted
	account.ExtraCost = req.ExtraCost.Float64()
	account.ExtraPrice = req.ExtraPrice.Float64()
	account.CompletedAt = &now
	account.UpdatedAt = now
	return nil
}

// Complete 结单，只有出租中的账号可以结算
func (s *AccountService) Complete(ctx context.Context, id string, req *CompleteRequest) (*model.RentalAccount, error) {
	var account *model.RentalAccount
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		account, err = s.accountRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := applyComplete(account, req, time.Now()); err != nil {
			return err
		}

		if err := s.accountRepo.Save(ctx, tx, account); err != nil {
			return fmt.Errorf("保存账号失败: %w", err)
		}

		return s.writeEvent(ctx, tx, model.EventAccountCompleted, account)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Infow("订单结算成功", "orderNumber", account.OrderNumber, "profit", account.Profit())
	return account, nil
}

// Delete 硬删除
func (s *AccountService) Delete(ctx context.Context, id string) error {
	return s.accountRepo.Delete(ctx, id)
}

// BatchSetStatus 批量强制改状态，管理员操作，不走单步流转规则
// 返回实际更新的条数，不存在的ID静默跳过
func (s *AccountService) BatchSetStatus(ctx context.Context, ids []string, status string) (int64, error) {
	if len(ids) == 0 {
		return 0, newValidationError("ids", "请提供有效的账号ID列表")
	}
	if !model.IsValidStatus(status) {
		return 0, newValidationError("status", "无效的状态值")
	}

	var updated int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = s.accountRepo.BatchUpdateStatus(ctx, tx, ids, status)
		if err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"event":        model.EventAccountBatchStatus,
			"status":       status,
			"updatedCount": updated,
			"occurredAt":   time.Now().Format(time.RFC3339),
		})
		msg := &model.OutboxMessage{
			MessageKey: model.EventAccountBatchStatus,
			Topic:      s.cfg.Kafka.Topic.AccountEvent,
			Payload:    string(payload),
			Status:     model.OutboxStatusPending,
		}
		return s.outboxRepo.Create(ctx, tx, msg)
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// BatchDelete 批量删除，返回删除条数
func (s *AccountService) BatchDelete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, newValidationError("ids", "请提供有效的账号ID列表")
	}
	return s.accountRepo.BatchDelete(ctx, ids)
}

// ListResult 列表查询结果
type ListResult struct {
	Accounts   []*model.RentalAccount
	Total      int64
	Page       int
	Limit      int
	TotalPages int64
}

// List 分页列表，超出范围的页返回空页不报错
func (s *AccountService) List(ctx context.Context, filter repository.ListFilter) (*ListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = s.cfg.Business.DefaultPageSize
	}

	accounts, total, err := s.accountRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if accounts == nil {
		accounts = []*model.RentalAccount{}
	}

	return &ListResult{
		Accounts:   accounts,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: TotalPages(total, filter.Limit),
	}, nil
}

// TotalPages 总页数 ceil(total/limit)
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// writeEvent 在业务事务内落一条生命周期事件
func (s *AccountService) writeEvent(ctx context.Context, tx *gorm.DB, event string, account *model.RentalAccount) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"event":       event,
		"id":          account.ID,
		"orderNumber": account.OrderNumber,
		"status":      account.Status,
		"occurredAt":  time.Now().Format(time.RFC3339),
	})

	msg := &model.OutboxMessage{
		MessageKey: account.OrderNumber,
		Topic:      s.cfg.Kafka.Topic.AccountEvent,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("写入事件失败: %w", err)
	}
	return nil
}
