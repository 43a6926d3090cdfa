package api

import (
	"github.com/gin-gonic/gin"

	"github.com/oaflow/oaflow/pkg/api/handler"
	"github.com/oaflow/oaflow/pkg/api/middleware"
	"github.com/oaflow/oaflow/pkg/core/engine"
	"github.com/oaflow/oaflow/pkg/storage"
)

// Deps 路由依赖
type Deps struct {
	Engine      *engine.Engine
	Definitions *engine.DefinitionService
	Store       storage.Store
	Ws          *handler.WsHandler // 可为nil，nil时不注册/ws
	Version     string
}

// SetupRouter 设置路由
func SetupRouter(deps Deps) *gin.Engine {
	// 设置gin模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	// 创建handlers
	definitionHandler := handler.NewDefinitionHandler(deps.Definitions)
	instanceHandler := handler.NewInstanceHandler(deps.Engine)
	taskHandler := handler.NewTaskHandler(deps.Engine)
	ccHandler := handler.NewCcHandler(deps.Engine)
	formHandler := handler.NewFormHandler(deps.Store)
	orgHandler := handler.NewOrgHandler(deps.Store)
	healthHandler := handler.NewHealthHandler(deps.Version)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// WebSocket推送
	if deps.Ws != nil {
		router.GET("/ws", deps.Ws.Serve)
	}

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		// 流程定义路由
		definitions := v1.Group("/definitions")
		{
			definitions.GET("", definitionHandler.List)
			definitions.POST("", definitionHandler.Create)
			definitions.GET("/:id", definitionHandler.Get)
			definitions.PUT("/:id", definitionHandler.Update)
			definitions.DELETE("/:id", definitionHandler.Delete)
			definitions.PUT("/:id/flow", definitionHandler.SaveFlowConfig)
			definitions.POST("/:id/publish", definitionHandler.Publish)
			definitions.POST("/:id/disable", definitionHandler.Disable)
		}

		// 流程实例路由
		instances := v1.Group("/instances")
		{
			instances.GET("", instanceHandler.List)
			instances.POST("", instanceHandler.Start)
			instances.GET("/mine", instanceHandler.ListMine)
			instances.GET("/:id", instanceHandler.Get)
			instances.GET("/:id/info", instanceHandler.Info)
			instances.GET("/:id/form", instanceHandler.Form)
			instances.GET("/:id/graph", instanceHandler.Graph)
			instances.GET("/:id/tasks", instanceHandler.Tasks)
			instances.GET("/:id/history", instanceHandler.History)
			instances.POST("/:id/cancel", instanceHandler.Cancel)
		}

		// 审批任务路由
		tasks := v1.Group("/tasks")
		{
			tasks.GET("/pending", taskHandler.ListPending)
			tasks.GET("/:id", taskHandler.Get)
			tasks.POST("/:id/approve", taskHandler.Approve)
			tasks.POST("/:id/reject", taskHandler.Reject)
			tasks.POST("/:id/transfer", taskHandler.Transfer)
		}

		// 抄送路由
		cc := v1.Group("/cc")
		{
			cc.GET("", ccHandler.ListMine)
			cc.POST("/:id/read", ccHandler.MarkRead)
		}

		// 表单路由
		forms := v1.Group("/forms")
		{
			forms.POST("", formHandler.Create)
			forms.GET("/:id", formHandler.Get)
			forms.PUT("/:id", formHandler.Update)
		}

		// 组织架构路由
		org := v1.Group("/org")
		{
			org.GET("/users", orgHandler.SearchUsers)
			org.GET("/depts", orgHandler.ListDepts)
			org.GET("/depts/:id/users", orgHandler.ListDeptUsers)
			org.GET("/roles", orgHandler.ListRoles)
		}
	}

	return router
}
