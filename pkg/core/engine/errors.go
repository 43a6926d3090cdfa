package engine

import "errors"

// 引擎层错误，API层据此映射HTTP状态码
var (
	// ErrNotFound 目标资源不存在
	ErrNotFound = errors.New("资源不存在")
	// ErrInvalidState 当前状态不允许该操作
	ErrInvalidState = errors.New("当前状态不允许该操作")
	// ErrConfigFault 流程配置缺陷，需修复流程图后重试
	ErrConfigFault = errors.New("流程配置错误")
	// ErrNoRouteMatched 没有任何出边匹配，流程无法继续
	ErrNoRouteMatched = errors.New("没有匹配的流转路径")
	// ErrPermissionDenied 操作人不是任务的处理人
	ErrPermissionDenied = errors.New("无权处理该任务")
)
