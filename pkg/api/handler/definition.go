package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oaflow/oaflow/pkg/api/dto"
	"github.com/oaflow/oaflow/pkg/core/engine"
	"github.com/oaflow/oaflow/pkg/core/types"
	"github.com/oaflow/oaflow/pkg/storage"
)

// DefinitionHandler 流程定义API处理器
type DefinitionHandler struct {
	svc *engine.DefinitionService
}

// NewDefinitionHandler 创建DefinitionHandler
func NewDefinitionHandler(svc *engine.DefinitionService) *DefinitionHandler {
	return &DefinitionHandler{svc: svc}
}

// List 分页查询流程定义
// GET /api/v1/definitions
func (h *DefinitionHandler) List(c *gin.Context) {
	var query dto.DefinitionQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	defs, total, err := h.svc.ListDefinitions(c.Request.Context(), storage.DefinitionFilter{
		WorkflowName: query.WorkflowName,
		Category:     query.Category,
		Status:       query.Status,
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
		dto.NewPageResponse(defs, total, query.GetPageNum(), query.GetPageSize())))
}

// Create 创建流程定义
// POST /api/v1/definitions
func (h *DefinitionHandler) Create(c *gin.Context) {
	var req dto.SaveDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	op, ok := currentOperator(c)
	if !ok {
		return
	}

	def, err := h.svc.CreateDefinition(c.Request.Context(), &types.Definition{
		WorkflowKey:  req.WorkflowKey,
		WorkflowName: req.WorkflowName,
		WorkflowDesc: req.WorkflowDesc,
		Category:     req.Category,
		FormID:       req.FormID,
		Icon:         req.Icon,
		SortOrder:    req.SortOrder,
		CreateBy:     op.UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(def))
}

// Get 获取流程定义及流程图配置
// GET /api/v1/definitions/:id
func (h *DefinitionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc.GetFlowConfig(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FlowConfigResponse{
		Definition: detail.Definition,
		Nodes:      detail.Nodes,
		Edges:      detail.Edges,
		Approvers:  detail.Approvers,
	}))
}

// Update 更新流程定义基本信息
// PUT /api/v1/definitions/:id
func (h *DefinitionHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SaveDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	op, ok := currentOperator(c)
	if !ok {
		return
	}

	err := h.svc.UpdateDefinition(c.Request.Context(), &types.Definition{
		ID:           id,
		WorkflowKey:  req.WorkflowKey,
		WorkflowName: req.WorkflowName,
		WorkflowDesc: req.WorkflowDesc,
		Category:     req.Category,
		FormID:       req.FormID,
		Icon:         req.Icon,
		SortOrder:    req.SortOrder,
		UpdateBy:     op.UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse("ok"))
}

// Delete 删除流程定义
// DELETE /api/v1/definitions/:id
func (h *DefinitionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteDefinition(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse("ok"))
}

// SaveFlowConfig 保存流程图配置
// PUT /api/v1/definitions/:id/flow
func (h *DefinitionHandler) SaveFlowConfig(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SaveFlowConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	input := engine.FlowConfigInput{
		Approvers: make(map[string][]*types.ApproverConfig),
	}
	for _, n := range req.Nodes {
		input.Nodes = append(input.Nodes, &types.Node{
			NodeKey:   n.NodeKey,
			NodeName:  n.NodeName,
			NodeType:  types.NodeType(n.NodeType),
			PositionX: n.PositionX,
			PositionY: n.PositionY,
			Config:    n.Config,
		})
		for _, a := range n.Approvers {
			input.Approvers[n.NodeKey] = append(input.Approvers[n.NodeKey], &types.ApproverConfig{
				ApproverType:  types.ApproverType(a.ApproverType),
				ApproverValue: a.ApproverValue,
				ApproveMode:   types.ApproveMode(a.ApproveMode),
				NobodyHandler: types.NobodyHandler(a.NobodyHandler),
			})
		}
	}
	for _, e := range req.Edges {
		input.Edges = append(input.Edges, &types.Edge{
			SourceNodeKey: e.SourceNodeKey,
			TargetNodeKey: e.TargetNodeKey,
			ConditionExpr: e.ConditionExpr,
			Priority:      e.Priority,
		})
	}
	if req.Form != nil {
		input.Form = &types.FormDef{
			FormKey:    req.Form.FormKey,
			FormName:   req.Form.FormName,
			FormDesc:   req.Form.FormDesc,
			FormConfig: req.Form.FormConfig,
			Status:     req.Form.Status,
		}
	}

	if err := h.svc.SaveFlowConfig(c.Request.Context(), id, input); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse("ok"))
}

// Publish 发布流程定义
// POST /api/v1/definitions/:id/publish
func (h *DefinitionHandler) Publish(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Publish(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse("ok"))
}

// Disable 停用流程定义
// POST /api/v1/definitions/:id/disable
func (h *DefinitionHandler) Disable(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Disable(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse("ok"))
}
