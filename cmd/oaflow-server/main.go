package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	istorage "github.com/oaflow/oaflow/internal/storage"
	"github.com/oaflow/oaflow/pkg/api"
	"github.com/oaflow/oaflow/pkg/api/handler"
	"github.com/oaflow/oaflow/pkg/config"
	"github.com/oaflow/oaflow/pkg/core/cache"
	"github.com/oaflow/oaflow/pkg/core/engine"
	"github.com/oaflow/oaflow/pkg/core/events"
	"github.com/oaflow/oaflow/pkg/plugin"
)

var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "./configs/oaflow.yaml", "引擎配置文件路径")
	addr := flag.String("addr", "", "监听地址，覆盖配置文件")
	flag.Parse()

	log.Printf("OAFlow Server v%s", Version)
	log.Printf("配置文件: %s", *configPath)

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("配置文件不存在，使用默认配置")
			cfg = &config.EngineConfig{}
			cfg.ApplyDefaults()
		} else {
			log.Fatalf("加载配置失败: %v", err)
		}
	}
	if *addr != "" {
		cfg.OAFlow.Server.Addr = *addr
	}

	// 2. 创建存储
	store, closeStore, err := istorage.NewStore(
		cfg.GetDatabaseType(),
		cfg.GetDatabaseDSN(),
		&istorage.Options{
			MaxOpenConns:    cfg.OAFlow.Storage.Database.MaxOpenConns,
			MaxIdleConns:    cfg.OAFlow.Storage.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.OAFlow.Storage.Database.ConnMaxLifetime,
		},
	)
	if err != nil {
		log.Fatalf("创建存储失败: %v", err)
	}
	defer closeStore()
	log.Printf("存储已连接: %s", cfg.GetDatabaseType())

	// 3. 创建流程图缓存
	var graphCache cache.GraphCache
	switch cfg.OAFlow.Storage.Cache.Type {
	case "redis":
		rc, err := cache.NewRedisGraphCache(cache.RedisOptions{
			Addr:     cfg.OAFlow.Storage.Cache.Redis.Addr,
			Password: cfg.OAFlow.Storage.Cache.Redis.Password,
			DB:       cfg.OAFlow.Storage.Cache.Redis.DB,
			PoolSize: cfg.OAFlow.Storage.Cache.Redis.PoolSize,
		})
		if err != nil {
			log.Fatalf("连接Redis失败: %v", err)
		}
		graphCache = rc
		log.Printf("流程图缓存: redis (%s)", cfg.OAFlow.Storage.Cache.Redis.Addr)
	default:
		graphCache = cache.NewMemoryGraphCache()
		log.Printf("流程图缓存: memory")
	}

	// 4. 创建事件总线与引擎
	bus := events.NewBus(cfg.OAFlow.General.Env == "dev")
	eng := engine.NewEngine(store,
		engine.WithGraphCache(graphCache),
		engine.WithEventBus(bus),
		engine.WithAdminUser(cfg.OAFlow.Approval.AdminUserID, cfg.OAFlow.Approval.AdminUserName),
		engine.WithGraphTTL(cfg.OAFlow.Storage.Cache.DefaultTTL),
		engine.WithTaskTTL(cfg.OAFlow.Approval.TaskTTL),
	)
	definitions := engine.NewDefinitionService(store, graphCache)

	// 5. WebSocket推送
	ws, err := handler.NewWsHandler(bus)
	if err != nil {
		log.Fatalf("创建WebSocket推送失败: %v", err)
	}

	// 6. 邮件通知插件
	if emailCfg := cfg.OAFlow.Notify.Email; emailCfg.Enabled {
		plugins := plugin.NewManager()
		err := plugins.RegisterWithInit(plugin.NewEmailPlugin(), map[string]string{
			"smtp_host": emailCfg.SMTPHost,
			"smtp_port": strconv.Itoa(emailCfg.SMTPPort),
			"username":  emailCfg.Username,
			"password":  emailCfg.Password,
			"from":      emailCfg.From,
			"to":        emailCfg.To,
		})
		if err != nil {
			log.Fatalf("初始化邮件插件失败: %v", err)
		}
		for _, ev := range emailCfg.Events {
			if err := plugins.Bind(plugin.Binding{PluginName: "email", Event: events.EventType(ev)}); err != nil {
				log.Fatalf("绑定邮件插件失败: %v", err)
			}
		}
		detach, err := plugins.Attach(context.Background(), bus)
		if err != nil {
			log.Fatalf("挂载邮件插件失败: %v", err)
		}
		defer detach()
		log.Printf("邮件通知已启用: %v", emailCfg.Events)
	}

	// 7. 超时任务巡检
	scheduler := engine.NewCronScheduler(eng)
	if err := scheduler.Register(cfg.OAFlow.Approval.OverdueCron); err != nil {
		log.Fatalf("注册超时巡检失败: %v", err)
	}
	scheduler.Start()

	// 8. 启动API服务器
	apiServer := api.NewAPIServer(api.Deps{
		Engine:      eng,
		Definitions: definitions,
		Store:       store,
		Ws:          ws,
		Version:     Version,
	}, api.ServerConfig{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  cfg.OAFlow.Server.ReadTimeout,
		WriteTimeout: cfg.OAFlow.Server.WriteTimeout,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API服务器错误: %v", err)
		}
	}()

	log.Printf("✅ OAFlow Server started on %s", cfg.GetServerAddr())

	// 9. 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 10. 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.OAFlow.Server.WriteTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("关闭API服务器失败: %v", err)
	}
	scheduler.Stop()
	ws.Close()
	if err := bus.Close(); err != nil {
		log.Printf("关闭事件总线失败: %v", err)
	}
	log.Println("✅ 服务已停止")
}
