package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/oaflow/oaflow/pkg/core/events"
	"github.com/oaflow/oaflow/pkg/core/types"
	"github.com/oaflow/oaflow/pkg/storage"
)

// Operator 操作人
type Operator struct {
	UserID   string
	UserName string
}

// DecideRequest 审批决定请求
type DecideRequest struct {
	TaskID      int64
	Operator    Operator
	Approve     bool // true同意，false拒绝
	Comment     string
	Attachments string
}

// Decide 处理审批决定
// 拒绝立即终止流程并取消其余待办；同意后按节点审批方式汇总，
// 通过则取消同节点其余待办并推进流程
func (e *Engine) Decide(ctx context.Context, req DecideRequest) error {
	var pending []*events.Event
	err := e.store.InTx(ctx, func(tx storage.Store) error {
		task, inst, err := e.loadPendingTask(ctx, tx, req.TaskID, req.Operator)
		if err != nil {
			return err
		}

		now := time.Now()
		action := types.ActionApprove
		task.Status = types.TaskApproved
		if !req.Approve {
			action = types.ActionReject
			task.Status = types.TaskRejected
		}
		task.Comment = req.Comment
		task.Attachments = req.Attachments
		task.CompleteTime = &now
		if err := tx.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("更新任务失败: %w", err)
		}

		if _, err := tx.CreateHistory(ctx, &types.HistoryEntry{
			InstanceID:   inst.ID,
			TaskID:       &task.ID,
			NodeID:       task.NodeID,
			NodeName:     task.NodeName,
			Action:       action,
			OperatorID:   req.Operator.UserID,
			OperatorName: req.Operator.UserName,
			Comment:      req.Comment,
			Attachments:  req.Attachments,
			OperateTime:  now,
		}); err != nil {
			return fmt.Errorf("写审批历史失败: %w", err)
		}

		pending = append(pending, &events.Event{
			Type:       events.EventTaskCompleted,
			InstanceID: inst.ID,
			TaskID:     task.ID,
			UserID:     req.Operator.UserID,
			Data:       map[string]interface{}{"action": string(action)},
		})

		// 拒绝直接终止流程
		if !req.Approve {
			if _, err := tx.CancelPendingTasks(ctx, inst.ID); err != nil {
				return fmt.Errorf("取消待办任务失败: %w", err)
			}
			evs, err := e.finalize(ctx, tx, inst, types.InstanceRejected)
			if err != nil {
				return err
			}
			pending = append(pending, evs...)
			return nil
		}

		fg, err := e.loadGraph(ctx, inst.WorkflowID)
		if err != nil {
			return err
		}
		tasks, err := tx.ListTasksAtNode(ctx, inst.ID, task.NodeID)
		if err != nil {
			return fmt.Errorf("查询节点任务失败: %w", err)
		}

		switch Aggregate(fg.nodeApproveMode(task.NodeID), tasks) {
		case GatePassed:
			// 或签通过时取消同节点其余待办
			if _, err := tx.CancelPendingTasks(ctx, inst.ID); err != nil {
				return fmt.Errorf("取消待办任务失败: %w", err)
			}
			evs, err := e.advanceFrom(ctx, tx, fg, inst, task.NodeID)
			if err != nil {
				return err
			}
			pending = append(pending, evs...)
		case GateRejected:
			if _, err := tx.CancelPendingTasks(ctx, inst.ID); err != nil {
				return fmt.Errorf("取消待办任务失败: %w", err)
			}
			evs, err := e.finalize(ctx, tx, inst, types.InstanceRejected)
			if err != nil {
				return err
			}
			pending = append(pending, evs...)
		case GateWaiting:
			// 会签未齐，节点继续等待其余审批人
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.publishAll(ctx, pending)
	return nil
}

// TransferRequest 转交请求
type TransferRequest struct {
	TaskID   int64
	Operator Operator
	Target   types.Assignee
	Comment  string
}

// Transfer 把待办任务转交给其他用户
// 原任务置为已转交，在同节点为目标用户创建新的待办
func (e *Engine) Transfer(ctx context.Context, req TransferRequest) error {
	if req.Target.UserID == "" {
		return fmt.Errorf("%w: 转交目标用户为空", ErrInvalidState)
	}
	var pending []*events.Event
	err := e.store.InTx(ctx, func(tx storage.Store) error {
		task, inst, err := e.loadPendingTask(ctx, tx, req.TaskID, req.Operator)
		if err != nil {
			return err
		}
		if req.Target.UserID == task.AssigneeID {
			return fmt.Errorf("%w: 不能转交给自己", ErrInvalidState)
		}

		now := time.Now()
		task.Status = types.TaskTransferred
		task.Comment = req.Comment
		task.CompleteTime = &now
		if err := tx.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("更新任务失败: %w", err)
		}

		newTask := &types.Task{
			InstanceID:   inst.ID,
			InstanceNo:   inst.InstanceNo,
			NodeID:       task.NodeID,
			NodeKey:      task.NodeKey,
			NodeName:     task.NodeName,
			NodeType:     task.NodeType,
			AssigneeID:   req.Target.UserID,
			AssigneeName: req.Target.UserName,
			Status:       types.TaskPending,
			Priority:     task.Priority,
			CreateTime:   now,
			DueTime:      task.DueTime,
		}
		newID, err := tx.CreateTask(ctx, newTask)
		if err != nil {
			return fmt.Errorf("创建转交任务失败: %w", err)
		}

		if _, err := tx.CreateHistory(ctx, &types.HistoryEntry{
			InstanceID:   inst.ID,
			TaskID:       &task.ID,
			NodeID:       task.NodeID,
			NodeName:     task.NodeName,
			Action:       types.ActionTransfer,
			OperatorID:   req.Operator.UserID,
			OperatorName: req.Operator.UserName,
			Comment:      fmt.Sprintf("转交给 %s。%s", req.Target.UserName, req.Comment),
			OperateTime:  now,
		}); err != nil {
			return fmt.Errorf("写转交历史失败: %w", err)
		}

		pending = append(pending,
			&events.Event{
				Type:       events.EventTaskCompleted,
				InstanceID: inst.ID,
				TaskID:     task.ID,
				UserID:     req.Operator.UserID,
				Data:       map[string]interface{}{"action": string(types.ActionTransfer)},
			},
			&events.Event{
				Type:       events.EventTaskCreated,
				InstanceID: inst.ID,
				TaskID:     newID,
				UserID:     req.Target.UserID,
				Data:       map[string]interface{}{"node_name": task.NodeName},
			},
		)
		return nil
	})
	if err != nil {
		return err
	}
	e.publishAll(ctx, pending)
	return nil
}

// Cancel 发起人撤销运行中的流程实例
func (e *Engine) Cancel(ctx context.Context, instanceID int64, op Operator, reason string) error {
	var pending []*events.Event
	err := e.store.InTx(ctx, func(tx storage.Store) error {
		inst, err := tx.GetInstanceForUpdate(ctx, instanceID)
		if err != nil {
			if err == storage.ErrNotFound {
				return fmt.Errorf("%w: 流程实例 %d", ErrNotFound, instanceID)
			}
			return err
		}
		if inst.Status != types.InstanceRunning {
			return fmt.Errorf("%w: 实例 %s 已是 %s", ErrInvalidState, inst.InstanceNo, inst.Status)
		}
		if inst.StartUserID != op.UserID {
			return fmt.Errorf("%w: 只有发起人可以撤销", ErrPermissionDenied)
		}

		if _, err := tx.CancelPendingTasks(ctx, instanceID); err != nil {
			return fmt.Errorf("取消待办任务失败: %w", err)
		}

		if _, err := tx.CreateHistory(ctx, &types.HistoryEntry{
			InstanceID:   instanceID,
			NodeID:       inst.CurrentNodeID,
			Action:       types.ActionCancel,
			OperatorID:   op.UserID,
			OperatorName: op.UserName,
			Comment:      reason,
			OperateTime:  time.Now(),
		}); err != nil {
			return fmt.Errorf("写撤销历史失败: %w", err)
		}

		evs, err := e.finalize(ctx, tx, inst, types.InstanceCanceled)
		if err != nil {
			return err
		}
		pending = append(pending, evs...)
		return nil
	})
	if err != nil {
		return err
	}
	e.publishAll(ctx, pending)
	return nil
}

// MarkCcRead 抄送标记已读，重复标记是无害的空操作
func (e *Engine) MarkCcRead(ctx context.Context, ccID int64, userID string) error {
	return e.store.InTx(ctx, func(tx storage.Store) error {
		cc, err := tx.GetCc(ctx, ccID)
		if err != nil {
			if err == storage.ErrNotFound {
				return fmt.Errorf("%w: 抄送记录 %d", ErrNotFound, ccID)
			}
			return err
		}
		if cc.CcUserID != userID {
			return fmt.Errorf("%w: 不是该抄送的接收人", ErrPermissionDenied)
		}
		if cc.Status == types.CcRead {
			return nil
		}
		now := time.Now()
		cc.Status = types.CcRead
		cc.ReadTime = &now
		return tx.UpdateCc(ctx, cc)
	})
}

// loadPendingTask 加载待办任务并校验操作人，同时加锁读取所属实例
// 先锁实例再改任务，保证同一实例上的并发审批串行化
func (e *Engine) loadPendingTask(ctx context.Context, tx storage.Store, taskID int64, op Operator) (*types.Task, *types.Instance, error) {
	task, err := tx.GetTask(ctx, taskID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, nil, fmt.Errorf("%w: 任务 %d", ErrNotFound, taskID)
		}
		return nil, nil, err
	}

	inst, err := tx.GetInstanceForUpdate(ctx, task.InstanceID)
	if err != nil {
		return nil, nil, fmt.Errorf("加载实例失败: %w", err)
	}

	// 锁到实例后重读任务，避免并发操作已经改掉状态
	task, err = tx.GetTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if task.Status != types.TaskPending {
		return nil, nil, fmt.Errorf("%w: 任务已是 %s", ErrInvalidState, task.Status)
	}
	if task.AssigneeID != op.UserID {
		return nil, nil, fmt.Errorf("%w: 任务处理人是 %s", ErrPermissionDenied, task.AssigneeName)
	}
	if inst.Status != types.InstanceRunning {
		return nil, nil, fmt.Errorf("%w: 实例 %s 已是 %s", ErrInvalidState, inst.InstanceNo, inst.Status)
	}
	return task, inst, nil
}
