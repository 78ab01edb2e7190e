package logger

import (
	"go.uber.org/zap"
)

// Log 全局日志器，main 中 Init 之后全局可用
var Log *zap.SugaredLogger = zap.NewNop().Sugar()

// Init 初始化全局日志器
func Init() (*zap.Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	Log = l.Sugar()
	return l, nil
}
