package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOption 日志初始化参数
type LogOption struct {
	Format   string // "console" 或 "json"
	LogDir   string // 为空时只输出到标准输出
	Level    string // debug / info / warn / error
	Compress bool   // 是否压缩轮转后的旧日志
}

const (
	logFileName   = "harness.log"
	maxSizeMB     = 100
	maxBackups    = 10
	maxAgeDays    = 7
	defaultFormat = "console"
)

var (
	mu    sync.RWMutex
	sugar = newSugar(zapcore.InfoLevel, defaultFormat, zapcore.AddSync(os.Stdout))
)

// Init 根据配置重建全局 logger，可重复调用
func Init(opt LogOption) error {
	level, err := parseLevel(opt.Level)
	if err != nil {
		return err
	}

	format := strings.ToLower(opt.Format)
	if format == "" {
		format = defaultFormat
	}
	if format != "console" && format != "json" {
		return fmt.Errorf("unsupported log format %q", opt.Format)
	}

	ws := zapcore.AddSync(os.Stdout)
	if opt.LogDir != "" {
		if err := os.MkdirAll(opt.LogDir, 0o755); err != nil {
			return fmt.Errorf("create log dir %q: %w", opt.LogDir, err)
		}
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(opt.LogDir, logFileName),
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   opt.Compress,
		}
		ws = zapcore.NewMultiWriteSyncer(ws, zapcore.AddSync(rotator))
	}

	mu.Lock()
	old := sugar
	sugar = newSugar(level, format, ws)
	mu.Unlock()
	_ = old.Sync()
	return nil
}

func newSugar(level zapcore.Level, format string, ws zapcore.WriteSyncer) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var enc zapcore.Encoder
	if format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, ws, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Debugf(template string, args ...any) { current().Debugf(template, args...) }
func Infof(template string, args ...any)  { current().Infof(template, args...) }
func Warnf(template string, args ...any)  { current().Warnf(template, args...) }
func Errorf(template string, args ...any) { current().Errorf(template, args...) }

// Sync 刷新缓冲，进程退出前调用
func Sync() error {
	return current().Sync()
}
