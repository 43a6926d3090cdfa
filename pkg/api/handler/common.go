// Package handler 审批流HTTP API处理器
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oaflow/oaflow/pkg/api/dto"
	"github.com/oaflow/oaflow/pkg/core/engine"
)

// respondError 按引擎错误类型映射HTTP状态码
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, err.Error()))
	case errors.Is(err, engine.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, dto.NewErrorResponse(403, err.Error()))
	case errors.Is(err, engine.ErrInvalidState):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(409, err.Error()))
	case errors.Is(err, engine.ErrConfigFault), errors.Is(err, engine.ErrNoRouteMatched):
		c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(422, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
	}
}

// badRequest 参数错误响应
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "参数错误: "+err.Error()))
}

// pathID 解析路径中的数字ID
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "ID无效"))
		return 0, false
	}
	return id, true
}

// currentOperator 从请求头取操作人，认证网关在上游完成
func currentOperator(c *gin.Context) (engine.Operator, bool) {
	op := engine.Operator{
		UserID:   c.GetHeader("X-User-Id"),
		UserName: c.GetHeader("X-User-Name"),
	}
	if op.UserID == "" {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(401, "缺少用户身份"))
		return op, false
	}
	if op.UserName == "" {
		op.UserName = op.UserID
	}
	return op, true
}
