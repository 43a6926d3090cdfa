package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oaflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
oaflow:
  general:
    instance_name: oa-prod
    log_level: warn
    env: prod
  server:
    addr: ":9090"
    read_timeout: 30s
    write_timeout: 30s
  storage:
    database:
      type: mysql
      dsn: "root:root@tcp(127.0.0.1:3306)/oaflow?parseTime=true"
      max_open_conns: 50
    cache:
      type: redis
      default_ttl: 10m
      redis:
        addr: "10.0.0.1:6379"
        db: 2
  approval:
    admin_user_id: "9"
    admin_user_name: "系统管理员"
    task_ttl: 72h
    overdue_cron: "0 0 * * * *"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "oa-prod", cfg.OAFlow.General.InstanceName)
	assert.Equal(t, "warn", cfg.OAFlow.General.LogLevel)
	assert.Equal(t, ":9090", cfg.GetServerAddr())
	assert.Equal(t, 30*time.Second, cfg.OAFlow.Server.ReadTimeout)
	assert.Equal(t, "mysql", cfg.GetDatabaseType())
	assert.Equal(t, 50, cfg.OAFlow.Storage.Database.MaxOpenConns)
	assert.Equal(t, "redis", cfg.OAFlow.Storage.Cache.Type)
	assert.Equal(t, 10*time.Minute, cfg.OAFlow.Storage.Cache.DefaultTTL)
	assert.Equal(t, "10.0.0.1:6379", cfg.OAFlow.Storage.Cache.Redis.Addr)
	assert.Equal(t, 2, cfg.OAFlow.Storage.Cache.Redis.DB)
	assert.Equal(t, "9", cfg.OAFlow.Approval.AdminUserID)
	assert.Equal(t, 72*time.Hour, cfg.OAFlow.Approval.TaskTTL)
	assert.Equal(t, "0 0 * * * *", cfg.OAFlow.Approval.OverdueCron)

	// 没写的字段走默认值
	assert.Equal(t, 5, cfg.OAFlow.Storage.Database.MaxIdleConns)
	assert.Equal(t, 10, cfg.OAFlow.Storage.Cache.Redis.PoolSize)
}

func TestLoad_EmptyConfigUsesDefaults(t *testing.T) {
	path := writeConfig(t, "oaflow: {}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "oaflow", cfg.OAFlow.General.InstanceName)
	assert.Equal(t, "info", cfg.OAFlow.General.LogLevel)
	assert.Equal(t, "dev", cfg.OAFlow.General.Env)
	assert.Equal(t, ":8080", cfg.GetServerAddr())
	assert.Equal(t, 15*time.Second, cfg.OAFlow.Server.ReadTimeout)
	assert.Equal(t, "sqlite", cfg.GetDatabaseType())
	assert.Equal(t, "oaflow.db", cfg.GetDatabaseDSN())
	assert.Equal(t, "memory", cfg.OAFlow.Storage.Cache.Type)
	assert.Equal(t, time.Hour, cfg.OAFlow.Storage.Cache.DefaultTTL)
	assert.Equal(t, "1", cfg.OAFlow.Approval.AdminUserID)
	assert.Equal(t, "管理员", cfg.OAFlow.Approval.AdminUserName)
	assert.Equal(t, "0 * * * * *", cfg.OAFlow.Approval.OverdueCron)
	// 任务不强制设置截止时间
	assert.Zero(t, cfg.OAFlow.Approval.TaskTTL)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "oaflow: [broken")
	_, err := Load(path)
	require.Error(t, err)
}

func TestApplyDefaults_EmailEvents(t *testing.T) {
	var cfg EngineConfig
	cfg.OAFlow.Notify.Email.Enabled = true
	cfg.ApplyDefaults()
	// 开启邮件通知但没配事件时给一组常用默认
	assert.Equal(t, []string{"task.created", "task.overdue", "instance.finished"}, cfg.OAFlow.Notify.Email.Events)

	var off EngineConfig
	off.ApplyDefaults()
	assert.Empty(t, off.OAFlow.Notify.Email.Events)

	var custom EngineConfig
	custom.OAFlow.Notify.Email.Enabled = true
	custom.OAFlow.Notify.Email.Events = []string{"cc.created"}
	custom.ApplyDefaults()
	assert.Equal(t, []string{"cc.created"}, custom.OAFlow.Notify.Email.Events)
}
