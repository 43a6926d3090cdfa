package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oaflow/oaflow/pkg/api/dto"
	"github.com/oaflow/oaflow/pkg/core/engine"
	"github.com/oaflow/oaflow/pkg/core/types"
	"github.com/oaflow/oaflow/pkg/storage"
)

// TaskHandler 审批任务API处理器
type TaskHandler struct {
	engine *engine.Engine
}

// NewTaskHandler 创建TaskHandler
func NewTaskHandler(eng *engine.Engine) *TaskHandler {
	return &TaskHandler{engine: eng}
}

// ListPending 查询当前用户的待办任务
// GET /api/v1/tasks/pending
func (h *TaskHandler) ListPending(c *gin.Context) {
	var query dto.PageRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	op, ok := currentOperator(c)
	if !ok {
		return
	}

	tasks, total, err := h.engine.ListMyPending(c.Request.Context(), op.UserID, storage.PageQuery{
		PageNum:  query.GetPageNum(),
		PageSize: query.GetPageSize(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(
		dto.NewPageResponse(tasks, total, query.GetPageNum(), query.GetPageSize())))
}

// Get 获取任务详情
// GET /api/v1/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, err := h.engine.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(task))
}

// Approve 同意
// POST /api/v1/tasks/:id/approve
func (h *TaskHandler) Approve(c *gin.Context) {
	h.decide(c, true)
}

// Reject 拒绝
// POST /api/v1/tasks/:id/reject
func (h *TaskHandler) Reject(c *gin.Context) {
	h.decide(c, false)
}

func (h *TaskHandler) decide(c *gin.Context, approve bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	op, ok := currentOperator(c)
	if !ok {
		return
	}

	err := h.engine.Decide(c.Request.Context(), engine.DecideRequest{
		TaskID:      id,
		Operator:    op,
		Approve:     approve,
		Comment:     req.Comment,
		Attachments: req.Attachments,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse("ok"))
}

// Transfer 转交任务
// POST /api/v1/tasks/:id/transfer
func (h *TaskHandler) Transfer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	op, ok := currentOperator(c)
	if !ok {
		return
	}

	err := h.engine.Transfer(c.Request.Context(), engine.TransferRequest{
		TaskID:   id,
		Operator: op,
		Target: types.Assignee{
			UserID:   req.TargetUserID,
			UserName: req.TargetUserName,
		},
		Comment: req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse("ok"))
}
