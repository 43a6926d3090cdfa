// Package config 审批流服务配置
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EngineConfig 引擎框架配置（对外导出）
type EngineConfig struct {
	OAFlow struct {
		General struct {
			InstanceName string `yaml:"instance_name"`
			LogLevel     string `yaml:"log_level"`
			Env          string `yaml:"env"`
		} `yaml:"general"`
		Server struct {
			Addr         string        `yaml:"addr"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"server"`
		Storage struct {
			Database struct {
				Type            string        `yaml:"type"`
				DSN             string        `yaml:"dsn"`
				MaxOpenConns    int           `yaml:"max_open_conns"`
				MaxIdleConns    int           `yaml:"max_idle_conns"`
				ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
			} `yaml:"database"`
			Cache struct {
				Type       string        `yaml:"type"` // memory/redis
				DefaultTTL time.Duration `yaml:"default_ttl"`
				Redis      struct {
					Addr     string `yaml:"addr"`
					Password string `yaml:"password"`
					DB       int    `yaml:"db"`
					PoolSize int    `yaml:"pool_size"`
				} `yaml:"redis"`
			} `yaml:"cache"`
		} `yaml:"storage"`
		Approval struct {
			AdminUserID   string        `yaml:"admin_user_id"`
			AdminUserName string        `yaml:"admin_user_name"`
			TaskTTL       time.Duration `yaml:"task_ttl"`
			OverdueCron   string        `yaml:"overdue_cron"`
		} `yaml:"approval"`
		Notify struct {
			Email struct {
				Enabled  bool     `yaml:"enabled"`
				SMTPHost string   `yaml:"smtp_host"`
				SMTPPort int      `yaml:"smtp_port"`
				Username string   `yaml:"username"`
				Password string   `yaml:"password"`
				From     string   `yaml:"from"`
				To       string   `yaml:"to"` // 多个收件人用逗号分隔
				Events   []string `yaml:"events"`
			} `yaml:"email"`
		} `yaml:"notify"`
	} `yaml:"oaflow"`
}

// Load 从YAML文件加载配置并应用默认值
func Load(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// GetDatabaseType 获取数据库类型
func (c *EngineConfig) GetDatabaseType() string {
	return c.OAFlow.Storage.Database.Type
}

// GetDatabaseDSN 获取数据库DSN
func (c *EngineConfig) GetDatabaseDSN() string {
	return c.OAFlow.Storage.Database.DSN
}

// GetServerAddr 获取HTTP监听地址
func (c *EngineConfig) GetServerAddr() string {
	return c.OAFlow.Server.Addr
}

// ApplyDefaults 应用默认值
func (c *EngineConfig) ApplyDefaults() {
	// General默认值
	if c.OAFlow.General.InstanceName == "" {
		c.OAFlow.General.InstanceName = "oaflow"
	}
	if c.OAFlow.General.LogLevel == "" {
		c.OAFlow.General.LogLevel = "info"
	}
	if c.OAFlow.General.Env == "" {
		c.OAFlow.General.Env = "dev"
	}

	// Server默认值
	if c.OAFlow.Server.Addr == "" {
		c.OAFlow.Server.Addr = ":8080"
	}
	if c.OAFlow.Server.ReadTimeout <= 0 {
		c.OAFlow.Server.ReadTimeout = 15 * time.Second
	}
	if c.OAFlow.Server.WriteTimeout <= 0 {
		c.OAFlow.Server.WriteTimeout = 15 * time.Second
	}

	// Database默认值
	if c.OAFlow.Storage.Database.Type == "" {
		c.OAFlow.Storage.Database.Type = "sqlite"
	}
	if c.OAFlow.Storage.Database.DSN == "" {
		c.OAFlow.Storage.Database.DSN = "oaflow.db"
	}
	if c.OAFlow.Storage.Database.MaxOpenConns <= 0 {
		c.OAFlow.Storage.Database.MaxOpenConns = 10
	}
	if c.OAFlow.Storage.Database.MaxIdleConns <= 0 {
		c.OAFlow.Storage.Database.MaxIdleConns = 5
	}
	if c.OAFlow.Storage.Database.ConnMaxLifetime <= 0 {
		c.OAFlow.Storage.Database.ConnMaxLifetime = 2 * time.Hour
	}

	// Cache默认值
	if c.OAFlow.Storage.Cache.Type == "" {
		c.OAFlow.Storage.Cache.Type = "memory"
	}
	if c.OAFlow.Storage.Cache.DefaultTTL <= 0 {
		c.OAFlow.Storage.Cache.DefaultTTL = 1 * time.Hour
	}
	if c.OAFlow.Storage.Cache.Redis.Addr == "" {
		c.OAFlow.Storage.Cache.Redis.Addr = "127.0.0.1:6379"
	}
	if c.OAFlow.Storage.Cache.Redis.PoolSize <= 0 {
		c.OAFlow.Storage.Cache.Redis.PoolSize = 10
	}

	// 审批默认值
	if c.OAFlow.Approval.AdminUserID == "" {
		c.OAFlow.Approval.AdminUserID = "1"
	}
	if c.OAFlow.Approval.AdminUserName == "" {
		c.OAFlow.Approval.AdminUserName = "管理员"
	}
	if c.OAFlow.Approval.OverdueCron == "" {
		c.OAFlow.Approval.OverdueCron = "0 * * * * *"
	}

	// 通知默认值
	if c.OAFlow.Notify.Email.Enabled && len(c.OAFlow.Notify.Email.Events) == 0 {
		c.OAFlow.Notify.Email.Events = []string{"task.created", "task.overdue", "instance.finished"}
	}
}
