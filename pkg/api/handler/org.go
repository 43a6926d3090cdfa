package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oaflow/oaflow/pkg/api/dto"
	"github.com/oaflow/oaflow/pkg/storage"
)

// OrgHandler 组织架构API处理器，流程设计器选人用
type OrgHandler struct {
	store storage.Store
}

// NewOrgHandler 创建OrgHandler
func NewOrgHandler(store storage.Store) *OrgHandler {
	return &OrgHandler{store: store}
}

// SearchUsers 按关键词搜索用户
// GET /api/v1/org/users?keyword=
func (h *OrgHandler) SearchUsers(c *gin.Context) {
	keyword := c.Query("keyword")
	users, err := h.store.SearchUsers(c.Request.Context(), keyword)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}

// ListDepts 获取全部部门
// GET /api/v1/org/depts
func (h *OrgHandler) ListDepts(c *gin.Context) {
	depts, err := h.store.ListDepts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(depts))
}

// ListDeptUsers 获取部门下的全部用户
// GET /api/v1/org/depts/:id/users
func (h *OrgHandler) ListDeptUsers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	users, err := h.store.ListUsersByDept(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}

// ListRoles 获取全部角色
// GET /api/v1/org/roles
func (h *OrgHandler) ListRoles(c *gin.Context) {
	roles, err := h.store.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(roles))
}
