package engine

import (
	"context"
	"fmt"

	"github.com/oaflow/oaflow/pkg/core/types"
	"github.com/oaflow/oaflow/pkg/storage"
)

// InstanceDetail 实例详情投影：实例、全部任务与审批历史
type InstanceDetail struct {
	Instance *types.Instance       `json:"instance"`
	Tasks    []*types.Task         `json:"tasks"`
	History  []*types.HistoryEntry `json:"history"`
}

// GetInstanceDetail 获取实例详情
func (e *Engine) GetInstanceDetail(ctx context.Context, instanceID int64) (*InstanceDetail, error) {
	inst, err := e.loadInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	tasks, err := e.store.ListTasksByInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("查询实例任务失败: %w", err)
	}
	history, err := e.store.ListHistory(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("查询审批历史失败: %w", err)
	}
	return &InstanceDetail{Instance: inst, Tasks: tasks, History: history}, nil
}

// InstanceInfo 实例概要投影：实例基本信息与当前停留节点的名称
type InstanceInfo struct {
	Instance        *types.Instance `json:"instance"`
	CurrentNodeName string          `json:"current_node_name,omitempty"`
}

// GetInstanceInfo 获取实例概要
// 已结束的实例没有当前节点，节点名称为空
func (e *Engine) GetInstanceInfo(ctx context.Context, instanceID int64) (*InstanceInfo, error) {
	inst, err := e.loadInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	info := &InstanceInfo{Instance: inst}
	if inst.CurrentNodeID > 0 {
		node, err := e.store.GetNode(ctx, inst.CurrentNodeID)
		if err != nil && err != storage.ErrNotFound {
			return nil, fmt.Errorf("查询当前节点失败: %w", err)
		}
		if node != nil {
			info.CurrentNodeName = node.NodeName
		}
	}
	return info, nil
}

// InstanceForm 实例表单投影：已填的表单数据与表单结构定义
type InstanceForm struct {
	FormData   map[string]interface{} `json:"form_data"`
	FormConfig string                 `json:"form_config,omitempty"`
}

// GetInstanceForm 获取实例的表单数据与表单结构
func (e *Engine) GetInstanceForm(ctx context.Context, instanceID int64) (*InstanceForm, error) {
	inst, err := e.loadInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	data, err := unmarshalFormData(inst.FormData)
	if err != nil {
		return nil, err
	}
	form := &InstanceForm{FormData: data}
	if inst.FormID != nil {
		def, err := e.store.GetForm(ctx, *inst.FormID)
		if err != nil && err != storage.ErrNotFound {
			return nil, fmt.Errorf("查询表单定义失败: %w", err)
		}
		if def != nil {
			form.FormConfig = def.FormConfig
		}
	}
	return form, nil
}

// InstanceGraph 实例流程图投影：完整流程图加上当前节点与已走完的节点
type InstanceGraph struct {
	Nodes            []*types.Node `json:"nodes"`
	Edges            []*types.Edge `json:"edges"`
	CurrentNodeID    int64         `json:"current_node_id"`
	CompletedNodeIDs []int64       `json:"completed_node_ids"`
}

// GetInstanceGraph 获取实例的流程图投影，用于前端高亮流转进度
// 已完成节点从历史任务推导：节点上有任务通过即视为走完
func (e *Engine) GetInstanceGraph(ctx context.Context, instanceID int64) (*InstanceGraph, error) {
	inst, err := e.loadInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	nodes, err := e.store.ListNodes(ctx, inst.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("加载节点失败: %w", err)
	}
	edges, err := e.store.ListEdges(ctx, inst.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("加载连线失败: %w", err)
	}
	tasks, err := e.store.ListTasksByInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("查询实例任务失败: %w", err)
	}

	seen := make(map[int64]struct{})
	completed := make([]int64, 0)
	for _, task := range tasks {
		if task.Status != types.TaskApproved {
			continue
		}
		if _, ok := seen[task.NodeID]; ok {
			continue
		}
		seen[task.NodeID] = struct{}{}
		completed = append(completed, task.NodeID)
	}

	return &InstanceGraph{
		Nodes:            nodes,
		Edges:            edges,
		CurrentNodeID:    inst.CurrentNodeID,
		CompletedNodeIDs: completed,
	}, nil
}

// ListInstanceTasks 获取实例的全部任务
func (e *Engine) ListInstanceTasks(ctx context.Context, instanceID int64) ([]*types.Task, error) {
	if _, err := e.loadInstance(ctx, instanceID); err != nil {
		return nil, err
	}
	tasks, err := e.store.ListTasksByInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("查询实例任务失败: %w", err)
	}
	return tasks, nil
}

// ListInstanceHistory 获取实例的审批历史
func (e *Engine) ListInstanceHistory(ctx context.Context, instanceID int64) ([]*types.HistoryEntry, error) {
	if _, err := e.loadInstance(ctx, instanceID); err != nil {
		return nil, err
	}
	history, err := e.store.ListHistory(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("查询审批历史失败: %w", err)
	}
	return history, nil
}

func (e *Engine) loadInstance(ctx context.Context, instanceID int64) (*types.Instance, error) {
	inst, err := e.store.GetInstance(ctx, instanceID)
	if err == storage.ErrNotFound {
		return nil, fmt.Errorf("%w: 流程实例 %d", ErrNotFound, instanceID)
	}
	return inst, err
}

// ListInstances 分页查询流程实例
func (e *Engine) ListInstances(ctx context.Context, filter storage.InstanceFilter) ([]*types.Instance, int64, error) {
	return e.store.ListInstances(ctx, filter)
}

// ListMyPending 分页查询用户的待办任务
func (e *Engine) ListMyPending(ctx context.Context, userID string, page storage.PageQuery) ([]*types.Task, int64, error) {
	return e.store.ListPendingTasksByAssignee(ctx, userID, page)
}

// ListMyCc 分页查询用户收到的抄送
func (e *Engine) ListMyCc(ctx context.Context, userID string, page storage.PageQuery) ([]*types.CcRecord, int64, error) {
	return e.store.ListCcByUser(ctx, userID, page)
}

// GetTask 获取任务详情
func (e *Engine) GetTask(ctx context.Context, taskID int64) (*types.Task, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err == storage.ErrNotFound {
		return nil, fmt.Errorf("%w: 任务 %d", ErrNotFound, taskID)
	}
	return task, err
}
