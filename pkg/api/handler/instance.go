package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oaflow/oaflow/pkg/api/dto"
	"github.com/oaflow/oaflow/pkg/core/engine"
	"github.com/oaflow/oaflow/pkg/core/types"
	"github.com/oaflow/oaflow/pkg/storage"
)

// InstanceHandler 流程实例API处理器
type InstanceHandler struct {
	engine *engine.Engine
}

// NewInstanceHandler 创建InstanceHandler
func NewInstanceHandler(eng *engine.Engine) *InstanceHandler {
	return &InstanceHandler{engine: eng}
}

// Start 发起流程实例
// POST /api/v1/instances
func (h *InstanceHandler) Start(c *gin.Context) {
	var req dto.StartInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	op, ok := currentOperator(c)
	if !ok {
		return
	}

	inst, err := h.engine.StartInstance(c.Request.Context(), engine.StartRequest{
		WorkflowID:    req.WorkflowID,
		Title:         req.Title,
		FormData:      req.FormData,
		Priority:      req.Priority,
		BusinessKey:   req.BusinessKey,
		StartUserID:   op.UserID,
		StartUserName: op.UserName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.StartInstanceResponse{
		InstanceID: inst.ID,
		InstanceNo: inst.InstanceNo,
		Status:     string(inst.Status),
	}))
}

// List 分页查询流程实例
// GET /api/v1/instances
func (h *InstanceHandler) List(c *gin.Context) {
	var query dto.InstanceQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	insts, total, err := h.engine.ListInstances(c.Request.Context(), storage.InstanceFilter{
		StartUserID: query.StartUserID,
		Status:      types.InstanceStatus(query.Status),
		Page: storage.PageQuery{
			PageNum:  query.GetPageNum(),
			PageSize: query.GetPageSize(),
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(
		dto.NewPageResponse(insts, total, query.GetPageNum(), query.GetPageSize())))
}

// ListMine 查询当前用户发起的实例
// GET /api/v1/instances/mine
func (h *InstanceHandler) ListMine(c *gin.Context) {
	var query dto.InstanceQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	op, ok := currentOperator(c)
	if !ok {
		return
	}

	insts, total, err := h.engine.ListInstances(c.Request.Context(), storage.InstanceFilter{
		StartUserID: op.UserID,
		Status:      types.InstanceStatus(query.Status),
		Page: storage.PageQuery{
			PageNum:  query.GetPageNum(),
			PageSize: query.GetPageSize(),
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(
		dto.NewPageResponse(insts, total, query.GetPageNum(), query.GetPageSize())))
}

// Get 获取实例详情（实例、任务与审批历史）
// GET /api/v1/instances/:id
func (h *InstanceHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.engine.GetInstanceDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.InstanceDetailResponse{
		Instance: detail.Instance,
		Tasks:    detail.Tasks,
		History:  detail.History,
	}))
}

// Info 获取实例概要（基本信息与当前节点名称）
// GET /api/v1/instances/:id/info
func (h *InstanceHandler) Info(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	info, err := h.engine.GetInstanceInfo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// Form 获取实例的表单数据与表单结构
// GET /api/v1/instances/:id/form
func (h *InstanceHandler) Form(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	form, err := h.engine.GetInstanceForm(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(form))
}

// Graph 获取实例的流程图投影（节点、连线、当前与已完成节点）
// GET /api/v1/instances/:id/graph
func (h *InstanceHandler) Graph(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	graph, err := h.engine.GetInstanceGraph(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(graph))
}

// Tasks 获取实例的全部任务
// GET /api/v1/instances/:id/tasks
func (h *InstanceHandler) Tasks(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tasks, err := h.engine.ListInstanceTasks(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(tasks))
}

// History 获取实例的审批历史
// GET /api/v1/instances/:id/history
func (h *InstanceHandler) History(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	history, err := h.engine.ListInstanceHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(history))
}

// Cancel 撤销流程实例
// POST /api/v1/instances/:id/cancel
func (h *InstanceHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	op, ok := currentOperator(c)
	if !ok {
		return
	}

	if err := h.engine.Cancel(c.Request.Context(), id, op, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse("ok"))
}
