// Package config 加载 arbiterd 的 TOML 配置
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"

	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/fiber"
	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/logutil"
)

// Config arbiterd 配置
type Config struct {
	Arbiter ArbiterConfig  `toml:"arbiter" json:"arbiter"`
	Pool    PoolConfig     `toml:"pool" json:"pool"`
	Log     logutil.Config `toml:"log" json:"log"`
	Metrics MetricsConfig  `toml:"metrics" json:"metrics"`
}

// ArbiterConfig Arbiter 配置段
type ArbiterConfig struct {
	Name        string `toml:"name" json:"name"`
	MailboxSize int    `toml:"mailbox-size" json:"mailbox-size"`
}

// PoolConfig Fiber 池配置段
type PoolConfig struct {
	MaxWorkers int `toml:"max-workers" json:"max-workers"`
}

// MetricsConfig 监控配置段，Addr 为空时不启动 HTTP 服务
type MetricsConfig struct {
	Addr string `toml:"addr" json:"addr"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Arbiter: ArbiterConfig{
			Name:        "default",
			MailboxSize: 1024,
		},
		Pool: PoolConfig{
			MaxWorkers: fiber.DefaultMaxWorkers,
		},
		Log:     *logutil.DefaultConfig(),
		Metrics: MetricsConfig{Addr: "127.0.0.1:9464"},
	}
}

// Load 在默认配置之上加载 path，path 为空时返回默认配置
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := strictDecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	if c.Arbiter.Name == "" {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("arbiter.name is empty")
	}
	if c.Arbiter.MailboxSize < 0 {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs(
			fmt.Sprintf("arbiter.mailbox-size %d is negative", c.Arbiter.MailboxSize))
	}
	if c.Pool.MaxWorkers <= 0 {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs(
			fmt.Sprintf("pool.max-workers %d must be positive", c.Pool.MaxWorkers))
	}
	return c.Log.Validate()
}

// strictDecodeFile 解码 TOML 文件，出现未知配置项时报错
func strictDecodeFile(path string, cfg *Config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return errors.Annotatef(err, "decode config file %s", path)
	}

	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, 0, len(undecoded))
	for _, key := range undecoded {
		keys = append(keys, key.String())
	}
	return cerrors.ErrInvalidConfig.GenWithStackByArgs(
		"unknown configuration options: " + strings.Join(keys, ", "))
}
