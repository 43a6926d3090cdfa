package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oaflow/oaflow/pkg/api/dto"
	"github.com/oaflow/oaflow/pkg/core/types"
	"github.com/oaflow/oaflow/pkg/storage"
)

// FormHandler 流程表单API处理器
type FormHandler struct {
	store storage.Store
}

// NewFormHandler 创建FormHandler
func NewFormHandler(store storage.Store) *FormHandler {
	return &FormHandler{store: store}
}

// Create 创建表单
// POST /api/v1/forms
func (h *FormHandler) Create(c *gin.Context) {
	var req dto.SaveFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	form := &types.FormDef{
		FormKey:    req.FormKey,
		FormName:   req.FormName,
		FormDesc:   req.FormDesc,
		FormConfig: req.FormConfig,
		Status:     req.Status,
	}
	id, err := h.store.CreateForm(c.Request.Context(), form)
	if err != nil {
		respondError(c, err)
		return
	}
	form.ID = id
	c.JSON(http.StatusOK, dto.NewSuccessResponse(form))
}

// Get 获取表单
// GET /api/v1/forms/:id
func (h *FormHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	form, err := h.store.GetForm(c.Request.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "表单不存在"))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(form))
}

// Update 更新表单
// PUT /api/v1/forms/:id
func (h *FormHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SaveFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	form, err := h.store.GetForm(c.Request.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "表单不存在"))
			return
		}
		respondError(c, err)
		return
	}

	form.FormName = req.FormName
	form.FormDesc = req.FormDesc
	form.FormConfig = req.FormConfig
	form.Status = req.Status
	if err := h.store.UpdateForm(c.Request.Context(), form); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(form))
}
