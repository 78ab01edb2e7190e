package job

import (
	"context"
	"time"

	"rentsystem/internal/config"
	"rentsystem/internal/infrastructure/mq"
	"rentsystem/internal/model"
	"rentsystem/internal/repository"
	"rentsystem/pkg/logger"

	"gorm.io/gorm"
)

// OutboxSender 事务性消息投递任务
// 轮询 outbox 表里的待发消息投递到 Kafka，失败计数，超限标记失败
type OutboxSender struct {
	db         *gorm.DB
	outboxRepo *repository.OutboxRepository
	cfg        *config.Config
	interval   time.Duration
	batchSize  int
}

func NewOutboxSender(db *gorm.DB, cfg *config.Config) *OutboxSender {
	return &OutboxSender{
		db:         db,
		outboxRepo: repository.NewOutboxRepository(db),
		cfg:        cfg,
		interval:   time.Second,
		batchSize:  100,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	logger.Log.Info("[OutboxSender] 事件投递任务启动")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("[OutboxSender] 收到停止信号，任务退出")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) processPendingMessages(ctx context.Context) {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		logger.Log.Errorw("[OutboxSender] 查询待发消息失败", "err", err)
		return
	}

	for _, msg := range messages {
		s.sendMessage(ctx, msg)
	}
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) {
	err := mq.SendMessage(msg.Topic, msg.MessageKey, msg.Payload)

	if err == nil {
		if updateErr := s.outboxRepo.UpdateStatus(ctx, msg.ID, model.OutboxStatusSent); updateErr != nil {
			logger.Log.Errorw("[OutboxSender] 更新消息状态失败", "id", msg.ID, "err", updateErr)
		}
		return
	}

	logger.Log.Warnw("[OutboxSender] 消息投递失败", "id", msg.ID, "err", err)

	if msg.RetryCount+1 >= s.cfg.Business.MaxRetryCount {
		if err := s.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			logger.Log.Errorw("[OutboxSender] 标记消息失败状态失败", "id", msg.ID, "err", err)
		} else {
			logger.Log.Warnw("[OutboxSender] 消息超过最大重试次数", "id", msg.ID)
		}
		return
	}

	if err := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		logger.Log.Errorw("[OutboxSender] 增加重试次数失败", "id", msg.ID, "err", err)
	}
}
