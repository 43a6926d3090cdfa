package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oaflow/oaflow/pkg/core/types"
)

// mkTasks 按状态列表构造任务
func mkTasks(statuses ...types.TaskStatus) []*types.Task {
	tasks := make([]*types.Task, 0, len(statuses))
	for i, s := range statuses {
		tasks = append(tasks, &types.Task{ID: int64(i + 1), Status: s})
	}
	return tasks
}

func TestAggregate_AndMode(t *testing.T) {
	tests := []struct {
		name     string
		statuses []types.TaskStatus
		want     GateOutcome
	}{
		{"全部同意通过", []types.TaskStatus{types.TaskApproved, types.TaskApproved}, GatePassed},
		{"还有待办则等待", []types.TaskStatus{types.TaskApproved, types.TaskPending}, GateWaiting},
		{"任一拒绝即拒绝", []types.TaskStatus{types.TaskApproved, types.TaskRejected, types.TaskPending}, GateRejected},
		{"取消的任务不阻塞会签", []types.TaskStatus{types.TaskApproved, types.TaskCanceled}, GatePassed},
		{"转交的任务不阻塞会签", []types.TaskStatus{types.TaskApproved, types.TaskTransferred}, GatePassed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(types.ModeAnd, mkTasks(tt.statuses...)))
		})
	}
}

func TestAggregate_OrMode(t *testing.T) {
	tests := []struct {
		name     string
		statuses []types.TaskStatus
		want     GateOutcome
	}{
		{"任一同意即通过", []types.TaskStatus{types.TaskPending, types.TaskApproved, types.TaskPending}, GatePassed},
		{"任一拒绝即拒绝", []types.TaskStatus{types.TaskPending, types.TaskRejected}, GateRejected},
		{"拒绝优先于同意", []types.TaskStatus{types.TaskApproved, types.TaskRejected}, GateRejected},
		{"全部待办则等待", []types.TaskStatus{types.TaskPending, types.TaskPending}, GateWaiting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(types.ModeOr, mkTasks(tt.statuses...)))
		})
	}
}

func TestAggregate_SequenceSameAsOr(t *testing.T) {
	tasks := mkTasks(types.TaskApproved)
	assert.Equal(t, GatePassed, Aggregate(types.ModeSequence, tasks))

	tasks = mkTasks(types.TaskRejected)
	assert.Equal(t, GateRejected, Aggregate(types.ModeSequence, tasks))
}
