package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oaflow/oaflow/pkg/api/dto"
	"github.com/oaflow/oaflow/pkg/core/engine"
	"github.com/oaflow/oaflow/pkg/storage"
)

// CcHandler 抄送API处理器
type CcHandler struct {
	engine *engine.Engine
}

// NewCcHandler 创建CcHandler
func NewCcHandler(eng *engine.Engine) *CcHandler {
	return &CcHandler{engine: eng}
}

// ListMine 查询当前用户收到的抄送
// GET /api/v1/cc
func (h *CcHandler) ListMine(c *gin.Context) {
	var query dto.PageRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	op, ok := currentOperator(c)
	if !ok {
		return
	}

	ccs, total, err := h.engine.ListMyCc(c.Request.Context(), op.UserID, storage.PageQuery{
		PageNum:  query.GetPageNum(),
		PageSize: query.GetPageSize(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(
		dto.NewPageResponse(ccs, total, query.GetPageNum(), query.GetPageSize())))
}

// MarkRead 抄送标记已读
// POST /api/v1/cc/:id/read
func (h *CcHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	op, ok := currentOperator(c)
	if !ok {
		return
	}

	if err := h.engine.MarkCcRead(c.Request.Context(), id, op.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse("ok"))
}
