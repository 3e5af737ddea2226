package config

import (
	"errors"
	"fmt"
	"os"

	"pagegraph/internal/rules"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config 配置文件结构体
type Config struct {
	Version string `yaml:"version" validate:"required"`

	Storage struct {
		Driver string `yaml:"driver" validate:"oneof=sqlite memory"`
	} `yaml:"storage"`

	Sqlite struct {
		Dsn    string `yaml:"dsn" validate:"required"`
		Prefix string `yaml:"prefix"`
	} `yaml:"sqlite"`

	Log struct {
		Level  string   `yaml:"level" validate:"oneof=trace debug info warn error"`
		Writer []string `yaml:"writer" validate:"dive,oneof=console file"`
		File   string   `yaml:"file"`
	} `yaml:"log"`

	Graph struct {
		// Exclude 命中任一条件的发起者视为浏览器内部流量
		Exclude []rules.Condition `yaml:"exclude" validate:"dive"`
	} `yaml:"graph"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	cfg := &Config{Version: "1.0.0"}
	cfg.Storage.Driver = "sqlite"
	cfg.Sqlite.Dsn = "pagegraph.sqlite3"
	cfg.Sqlite.Prefix = "pagegraph_"
	cfg.Log.Level = "info"
	cfg.Log.Writer = []string{"console"}
	cfg.Log.File = "pagegraph.log"
	cfg.Graph.Exclude = rules.DefaultExclusions()
	return cfg
}

// Load 读取 YAML 配置并覆盖默认值，path 为空时返回默认配置
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("配置校验失败: %s", verrs[0].Namespace())
		}
		return fmt.Errorf("配置校验失败: %w", err)
	}
	return nil
}

// ExclusionEngine 根据配置编译排除条件
func (c *Config) ExclusionEngine() (*rules.Engine, error) {
	return rules.New(c.Graph.Exclude)
}
