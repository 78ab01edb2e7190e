package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentsystem/internal/config"
	"rentsystem/internal/handler"
	"rentsystem/internal/infrastructure/cache"
	"rentsystem/internal/infrastructure/database"
	"rentsystem/internal/infrastructure/mq"
	"rentsystem/internal/job"
	"rentsystem/internal/repository"
	"rentsystem/pkg/idgen"
	"rentsystem/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	zl, err := logger.Init()
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zl.Sync()

	// 加载配置
	cfg := config.LoadConfig("config/config.yaml")

	// 初始化 ID 生成器
	idgen.Init(1)

	// 初始化 MySQL
	db := database.InitMySQL(&cfg.MySQL)

	// 首次启动初始化系统配置（计数器、报表密码哈希）
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Business.InitialReportPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Fatalf("初始化报表密码失败: %v", err)
	}
	settingsRepo := repository.NewSettingsRepository(db)
	if err := settingsRepo.EnsureExists(context.Background(), string(hash)); err != nil {
		logger.Log.Fatalf("初始化系统配置失败: %v", err)
	}

	// 初始化 Redis
	redisClient := cache.InitRedis(&cfg.Redis)

	// 初始化 Kafka
	mq.InitKafka(&cfg.Kafka)
	defer mq.CloseKafka()

	// 创建上下文（用于优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动后台任务
	outboxSender := job.NewOutboxSender(db, cfg)
	go outboxSender.Start(ctx)

	backupJob := job.NewBackupJob(db, cfg)
	go backupJob.Start(ctx)

	// 设置路由
	router := handler.SetupRouter(db, redisClient, cfg)

	// 启动 HTTP 服务
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Log.Infow("服务启动", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("正在关闭服务...")

	// 取消上下文，停止后台任务
	cancel()

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("服务关闭异常", "err", err)
	}

	logger.Log.Info("服务已关闭")
}
