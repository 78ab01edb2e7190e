package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	AccountEvent string `mapstructure:"account_event"`
}

// BusinessConfig 业务配置
// initial_report_password 仅在首次建库时生效，之后以库中的密码哈希为准
type BusinessConfig struct {
	InitialReportPassword  string `mapstructure:"initial_report_password"`
	DefaultPageSize        int    `mapstructure:"default_page_size"`
	StatisticsCacheSeconds int    `mapstructure:"statistics_cache_seconds"`
	AutoBackup             bool   `mapstructure:"auto_backup"`
	BackupIntervalHours    int    `mapstructure:"backup_interval_hours"`
	BackupDir              string `mapstructure:"backup_dir"`
	MaxRetryCount          int    `mapstructure:"max_retry_count"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	if config.Business.DefaultPageSize <= 0 {
		config.Business.DefaultPageSize = 50
	}
	if config.Business.StatisticsCacheSeconds <= 0 {
		config.Business.StatisticsCacheSeconds = 30
	}

	return config
}
