package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"rentsystem/internal/config"
	"rentsystem/internal/model"
	"rentsystem/internal/repository"
	"rentsystem/pkg/logger"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const statisticsCacheKey = "statistics:counts"

// ReportService 统计与利润报表引擎
type ReportService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cfg          *config.Config
	accountRepo  *repository.AccountRepository
	settingsRepo *repository.SettingsRepository
}

func NewReportService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *ReportService {
	return &ReportService{
		db:           db,
		redisClient:  redisClient,
		cfg:          cfg,
		accountRepo:  repository.NewAccountRepository(db),
		settingsRepo: repository.NewSettingsRepository(db),
	}
}

// Statistics 状态分布统计
type Statistics struct {
	Total     int64 `json:"total"`
	Inventory int64 `json:"inventory"`
	Rented    int64 `json:"rented"`
	Completed int64 `json:"completed"`
}

// Statistics 各状态数量
// 带短 TTL 的 Redis 缓存，纯时间过期，写操作不主动失效
func (s *ReportService) Statistics(ctx context.Context) (*Statistics, error) {
	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, statisticsCacheKey).Result(); err == nil {
			var stats Statistics
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	total, inventory, rented, completed, err := s.accountRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		Total:     total,
		Inventory: inventory,
		Rented:    rented,
		Completed: completed,
	}

	if s.redisClient != nil {
		data, _ := json.Marshal(stats)
		ttl := time.Duration(s.cfg.Business.StatisticsCacheSeconds) * time.Second
		if err := s.redisClient.Set(ctx, statisticsCacheKey, data, ttl).Err(); err != nil {
			logger.Log.Warnw("统计缓存写入失败", "err", err)
		}
	}

	return stats, nil
}

// ProfitDetail 单条利润明细
type ProfitDetail struct {
	ID           string     `json:"id"`
	OrderNumber  string     `json:"orderNumber"`
	WechatID     string     `json:"wechatId"`
	BossWechatID string     `json:"bossWechatId"`
	BaseCost     float64    `json:"baseCost"`
	BasePrice    float64    `json:"basePrice"`
	ExtraCost    float64    `json:"extraCost"`
	ExtraPrice   float64    `json:"extraPrice"`
	Profit       float64    `json:"profit"`
	CompletedAt  *time.Time `json:"completedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// ProfitSummary 利润汇总
type ProfitSummary struct {
	TotalProfit   float64 `json:"totalProfit"`
	TotalOrders   int     `json:"totalOrders"`
	AverageProfit float64 `json:"averageProfit"`
}

// ProfitReport 利润报表
type ProfitReport struct {
	Summary ProfitSummary  `json:"summary"`
	Details []ProfitDetail `json:"details"`
}

// BuildProfitReport 由已结单集合算出报表
// 利润 = (基础售价+增值售价) - (基础成本+增值成本)，均价保留两位小数
func BuildProfitReport(completed []*model.RentalAccount) *ProfitReport {
	report := &ProfitReport{Details: make([]ProfitDetail, 0, len(completed))}

	for _, account := range completed {
		profit := account.Profit()
		report.Summary.TotalProfit += profit
		report.Details = append(report.Details, ProfitDetail{
			ID:           account.ID,
			OrderNumber:  account.OrderNumber,
			WechatID:     account.WechatID,
			BossWechatID: account.BossWechatID,
			BaseCost:     account.BaseCost,
			BasePrice:    account.BasePrice,
			ExtraCost:    account.ExtraCost,
			ExtraPrice:   account.ExtraPrice,
			Profit:       profit,
			CompletedAt:  account.CompletedAt,
			CreatedAt:    account.CreatedAt,
		})
	}

	report.Summary.TotalOrders = len(completed)
	if len(completed) > 0 {
		avg := report.Summary.TotalProfit / float64(len(completed))
		report.Summary.AverageProfit = roundHalfUp(avg*100) / 100
	}
	return report
}

// roundHalfUp 负数半分向上取整，-2.5 取 -2
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// GetProfitReport 密码校验通过后出报表
func (s *ReportService) GetProfitReport(ctx context.Context, password string) (*ProfitReport, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(settings.ReportPasswordHash), []byte(password)) != nil {
		return nil, ErrPasswordMismatch
	}

	completed, err := s.accountRepo.ListByStatus(ctx, model.StatusCompleted)
	if err != nil {
		return nil, err
	}

	return BuildProfitReport(completed), nil
}

// ChangePassword 修改报表密码，原密码校验通过后直接覆盖
func (s *ReportService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(settings.ReportPasswordHash), []byte(oldPassword)) != nil {
		return ErrOldPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("密码加密失败: %w", err)
	}

	return s.settingsRepo.UpdateReportPasswordHash(ctx, string(hash))
}
