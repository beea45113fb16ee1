package logger

import (
	"os"

	"llm_tutor_backend/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log *zap.Logger

func newEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// InitLogger 文件走 JSON（lumberjack 轮转），控制台在 debug 模式下走可读编码
func InitLogger(cfg *config.Config) {
	encoderConfig := newEncoderConfig()

	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   "logs/llm_tutor.log",
		MaxSize:    100, // MB
		MaxBackups: 5,
		MaxAge:     30, // 天
		Compress:   true,
	})

	level := zap.InfoLevel
	consoleEncoder := zapcore.NewJSONEncoder(encoderConfig)
	if cfg.Server.Mode == "debug" {
		level = zap.DebugLevel
		consoleEncoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, level),
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level),
	)

	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}
