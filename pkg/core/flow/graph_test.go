package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaflow/oaflow/pkg/core/types"
)

// buildNodes 构造测试节点
func buildNodes() []*types.Node {
	return []*types.Node{
		{ID: 1, NodeKey: "start", NodeName: "发起", NodeType: types.NodeStart},
		{ID: 2, NodeKey: "approve", NodeName: "审批", NodeType: types.NodeApprove},
		{ID: 3, NodeKey: "end", NodeName: "结束", NodeType: types.NodeEnd},
	}
}

// approverFor 给审批节点配一组审批人
func approverFor(nodeID int64) map[int64][]*types.ApproverConfig {
	return map[int64][]*types.ApproverConfig{
		nodeID: {{NodeID: nodeID, ApproverType: types.ApproverUser, ApproverValue: "1:张三", ApproveMode: types.ModeOr}},
	}
}

func TestGraph_OutgoingSortedByPriority(t *testing.T) {
	nodes := []*types.Node{
		{ID: 1, NodeKey: "start", NodeType: types.NodeStart},
		{ID: 2, NodeKey: "cond", NodeType: types.NodeCondition},
		{ID: 3, NodeKey: "a", NodeType: types.NodeEnd},
		{ID: 4, NodeKey: "b", NodeType: types.NodeEnd},
	}
	edges := []*types.Edge{
		{ID: 10, SourceNodeID: 2, TargetNodeID: 3, Priority: 5},
		{ID: 11, SourceNodeID: 2, TargetNodeID: 4, Priority: 1},
		{ID: 12, SourceNodeID: 1, TargetNodeID: 2, Priority: 1},
	}
	g := NewGraph(1, nodes, edges)

	out := g.Outgoing(2)
	require.Len(t, out, 2)
	assert.Equal(t, int64(11), out[0].ID) // 优先级小的在前
	assert.Equal(t, int64(10), out[1].ID)
}

func TestGraph_OutgoingSamePriorityKeepsEdgeOrder(t *testing.T) {
	nodes := []*types.Node{
		{ID: 1, NodeKey: "start", NodeType: types.NodeStart},
		{ID: 2, NodeKey: "a", NodeType: types.NodeEnd},
		{ID: 3, NodeKey: "b", NodeType: types.NodeEnd},
	}
	edges := []*types.Edge{
		{ID: 21, SourceNodeID: 1, TargetNodeID: 3, Priority: 1},
		{ID: 20, SourceNodeID: 1, TargetNodeID: 2, Priority: 1},
	}
	g := NewGraph(1, nodes, edges)

	out := g.Outgoing(1)
	require.Len(t, out, 2)
	// 同优先级按连线ID升序
	assert.Equal(t, int64(20), out[0].ID)
	assert.Equal(t, int64(21), out[1].ID)
}

func TestGraph_NodeLookup(t *testing.T) {
	g := NewGraph(1, buildNodes(), nil)

	n, ok := g.Node(2)
	require.True(t, ok)
	assert.Equal(t, "approve", n.NodeKey)

	n, ok = g.NodeByKey("end")
	require.True(t, ok)
	assert.Equal(t, int64(3), n.ID)

	_, ok = g.Node(99)
	assert.False(t, ok)

	start := g.StartNode()
	require.NotNil(t, start)
	assert.Equal(t, int64(1), start.ID)
}

func TestGraphValidate_ValidFlow(t *testing.T) {
	edges := []*types.Edge{
		{ID: 1, SourceNodeID: 1, TargetNodeID: 2, Priority: 1},
		{ID: 2, SourceNodeID: 2, TargetNodeID: 3, Priority: 1},
	}
	g := NewGraph(1, buildNodes(), edges)

	err := g.Validate(ValidateOptions{Approvers: approverFor(2)})
	assert.NoError(t, err)
}

func TestGraphValidate_RequiresSingleStart(t *testing.T) {
	nodes := []*types.Node{
		{ID: 1, NodeKey: "s1", NodeType: types.NodeStart},
		{ID: 2, NodeKey: "s2", NodeType: types.NodeStart},
		{ID: 3, NodeKey: "end", NodeType: types.NodeEnd},
	}
	g := NewGraph(1, nodes, []*types.Edge{{ID: 1, SourceNodeID: 1, TargetNodeID: 3, Priority: 1}})
	err := g.Validate(ValidateOptions{})
	assert.Error(t, err)

	// 没有开始节点同样不合法
	g = NewGraph(1, nodes[2:], nil)
	err = g.Validate(ValidateOptions{})
	assert.Error(t, err)
}

func TestGraphValidate_RequiresEnd(t *testing.T) {
	nodes := []*types.Node{
		{ID: 1, NodeKey: "start", NodeType: types.NodeStart},
		{ID: 2, NodeKey: "approve", NodeType: types.NodeApprove},
	}
	g := NewGraph(1, nodes, []*types.Edge{{ID: 1, SourceNodeID: 1, TargetNodeID: 2, Priority: 1}})
	err := g.Validate(ValidateOptions{Approvers: approverFor(2)})
	assert.Error(t, err)
}

func TestGraphValidate_DanglingEdge(t *testing.T) {
	edges := []*types.Edge{
		{ID: 1, SourceNodeID: 1, TargetNodeID: 2, Priority: 1},
		{ID: 2, SourceNodeID: 2, TargetNodeID: 99, Priority: 1}, // 目标节点不存在
	}
	g := NewGraph(1, buildNodes(), edges)
	err := g.Validate(ValidateOptions{Approvers: approverFor(2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "不存在")
}

func TestGraphValidate_CycleDetection(t *testing.T) {
	nodes := []*types.Node{
		{ID: 1, NodeKey: "start", NodeType: types.NodeStart},
		{ID: 2, NodeKey: "a", NodeType: types.NodeApprove},
		{ID: 3, NodeKey: "b", NodeType: types.NodeApprove},
		{ID: 4, NodeKey: "end", NodeType: types.NodeEnd},
	}
	edges := []*types.Edge{
		{ID: 1, SourceNodeID: 1, TargetNodeID: 2, Priority: 1},
		{ID: 2, SourceNodeID: 2, TargetNodeID: 3, Priority: 1},
		{ID: 3, SourceNodeID: 3, TargetNodeID: 2, Priority: 1}, // 回到a，成环
		{ID: 4, SourceNodeID: 3, TargetNodeID: 4, Priority: 2},
	}
	g := NewGraph(1, nodes, edges)
	approvers := map[int64][]*types.ApproverConfig{
		2: {{NodeID: 2, ApproverType: types.ApproverUser, ApproverValue: "1:张三"}},
		3: {{NodeID: 3, ApproverType: types.ApproverUser, ApproverValue: "2:李四"}},
	}
	err := g.Validate(ValidateOptions{Approvers: approvers})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "循环")
}

func TestGraphValidate_EndUnreachable(t *testing.T) {
	// END节点存在但和START不连通
	edges := []*types.Edge{
		{ID: 1, SourceNodeID: 1, TargetNodeID: 2, Priority: 1},
	}
	g := NewGraph(1, buildNodes(), edges)
	err := g.Validate(ValidateOptions{Approvers: approverFor(2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "无法到达")
}

func TestGraphValidate_ApproveNodeNeedsApprovers(t *testing.T) {
	edges := []*types.Edge{
		{ID: 1, SourceNodeID: 1, TargetNodeID: 2, Priority: 1},
		{ID: 2, SourceNodeID: 2, TargetNodeID: 3, Priority: 1},
	}
	g := NewGraph(1, buildNodes(), edges)
	err := g.Validate(ValidateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未配置审批人")
}

func TestGraphValidate_MixedApproveModes(t *testing.T) {
	edges := []*types.Edge{
		{ID: 1, SourceNodeID: 1, TargetNodeID: 2, Priority: 1},
		{ID: 2, SourceNodeID: 2, TargetNodeID: 3, Priority: 1},
	}
	g := NewGraph(1, buildNodes(), edges)
	approvers := map[int64][]*types.ApproverConfig{
		2: {
			{NodeID: 2, ApproverType: types.ApproverUser, ApproverValue: "1:张三", ApproveMode: types.ModeAnd},
			{NodeID: 2, ApproverType: types.ApproverUser, ApproverValue: "2:李四", ApproveMode: types.ModeOr},
		},
	}
	err := g.Validate(ValidateOptions{Approvers: approvers})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "审批方式")
}
