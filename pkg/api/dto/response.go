package dto

import "github.com/oaflow/oaflow/pkg/core/types"

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// PageResponse 分页响应
type PageResponse[T any] struct {
	Total    int64 `json:"total"`
	PageNum  int   `json:"page_num"`
	PageSize int   `json:"page_size"`
	Items    []T   `json:"items"`
}

// NewPageResponse 创建分页响应
func NewPageResponse[T any](items []T, total int64, pageNum, pageSize int) PageResponse[T] {
	if items == nil {
		items = []T{}
	}
	return PageResponse[T]{
		Total:    total,
		PageNum:  pageNum,
		PageSize: pageSize,
		Items:    items,
	}
}

// StartInstanceResponse 发起流程响应
type StartInstanceResponse struct {
	InstanceID int64  `json:"instance_id"`
	InstanceNo string `json:"instance_no"`
	Status     string `json:"status"`
}

// FlowConfigResponse 流程图配置响应
type FlowConfigResponse struct {
	Definition *types.Definition       `json:"definition"`
	Nodes      []*types.Node           `json:"nodes"`
	Edges      []*types.Edge           `json:"edges"`
	Approvers  []*types.ApproverConfig `json:"approvers"`
}

// InstanceDetailResponse 实例详情响应
type InstanceDetailResponse struct {
	Instance *types.Instance       `json:"instance"`
	Tasks    []*types.Task         `json:"tasks"`
	History  []*types.HistoryEntry `json:"history"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}
