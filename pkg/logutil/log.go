// Package logutil 根据配置初始化进程日志
package logutil

import (
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
)

// Config 日志配置
type Config struct {
	// Level debug、info、warn、error
	Level string `toml:"level" json:"level"`
	// Format text 或 json
	Format string `toml:"format" json:"format"`
	// File 日志文件路径，为空时输出到 stderr
	File string `toml:"file" json:"file"`
}

// DefaultConfig 默认日志配置
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "text",
	}
}

// Validate 检查日志级别与格式
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("log level " + c.Level)
	}
	switch c.Format {
	case "text", "json":
	default:
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("log format " + c.Format)
	}
	return nil
}

// InitLogger 创建日志器并替换 pingcap/log 的全局日志器
func InitLogger(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, props, err := log.InitLogger(&log.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
		File: log.FileLogConfig{
			Filename: cfg.File,
		},
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.ReplaceGlobals(logger, props)
	return logger, nil
}
