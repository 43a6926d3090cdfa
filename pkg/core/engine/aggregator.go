package engine

import "github.com/oaflow/oaflow/pkg/core/types"

// GateOutcome 节点级投票结论
type GateOutcome int

const (
	GateWaiting  GateOutcome = iota // 还有任务未完成，节点继续等待
	GatePassed                      // 节点通过，流程推进
	GateRejected                    // 节点被拒绝，流程终止
)

// Aggregate 根据审批方式汇总节点上全部任务的结论
//
//	AND:      任一拒绝即拒绝；全部同意才通过；否则等待
//	OR:       任一同意即通过；任一拒绝即拒绝（拒绝在本次操作落库后判断）
//	SEQUENCE: 与OR相同，当前任务的结论直接决定节点走向
//
// tasks 为节点上的全部任务（含本次刚落库的决定）
func Aggregate(mode types.ApproveMode, tasks []*types.Task) GateOutcome {
	switch mode {
	case types.ModeAnd:
		allApproved := true
		for _, t := range tasks {
			switch t.Status {
			case types.TaskRejected:
				return GateRejected
			case types.TaskApproved, types.TaskCanceled, types.TaskTransferred:
				// 取消与已转交的任务不阻塞会签
			default:
				allApproved = false
			}
		}
		if allApproved {
			return GatePassed
		}
		return GateWaiting
	default: // OR与SEQUENCE：单人结论即节点结论
		for _, t := range tasks {
			if t.Status == types.TaskRejected {
				return GateRejected
			}
		}
		for _, t := range tasks {
			if t.Status == types.TaskApproved {
				return GatePassed
			}
		}
		return GateWaiting
	}
}
