package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaflow/oaflow/pkg/core/flow"
	"github.com/oaflow/oaflow/pkg/core/types"
)

// routerGraph 条件节点带三条出边：高额、大于3天、默认
func routerGraph() *flow.Graph {
	nodes := []*types.Node{
		{ID: 1, NodeKey: "start", NodeType: types.NodeStart},
		{ID: 2, NodeKey: "cond", NodeType: types.NodeCondition},
		{ID: 3, NodeKey: "high", NodeType: types.NodeApprove},
		{ID: 4, NodeKey: "long", NodeType: types.NodeApprove},
		{ID: 5, NodeKey: "normal", NodeType: types.NodeApprove},
	}
	edges := []*types.Edge{
		{ID: 10, SourceNodeID: 2, TargetNodeID: 3, ConditionExpr: "amount > 10000", Priority: 1},
		{ID: 11, SourceNodeID: 2, TargetNodeID: 4, ConditionExpr: "days > 3", Priority: 2},
		{ID: 12, SourceNodeID: 2, TargetNodeID: 5, Priority: 3}, // 默认路由
	}
	return flow.NewGraph(1, nodes, edges)
}

func TestRouter_FirstMatchWins(t *testing.T) {
	r := NewRouter(NewExprEvaluator())
	g := routerGraph()

	// 两个条件同时满足时走优先级更高的边
	next, err := r.Next(g, 2, map[string]interface{}{"amount": 20000, "days": 5})
	require.NoError(t, err)
	assert.Equal(t, "high", next.NodeKey)

	next, err = r.Next(g, 2, map[string]interface{}{"amount": 100, "days": 5})
	require.NoError(t, err)
	assert.Equal(t, "long", next.NodeKey)
}

func TestRouter_DefaultRoute(t *testing.T) {
	r := NewRouter(NewExprEvaluator())
	g := routerGraph()

	next, err := r.Next(g, 2, map[string]interface{}{"amount": 100, "days": 1})
	require.NoError(t, err)
	assert.Equal(t, "normal", next.NodeKey)
}

func TestRouter_NoOutgoingEdges(t *testing.T) {
	r := NewRouter(NewExprEvaluator())
	g := routerGraph()

	// 审批节点没有出边，流程走到尽头
	next, err := r.Next(g, 5, map[string]interface{}{})
	require.NoError(t, err)
	assert.Nil(t, next)
}

// 唯一出边直接走，不看条件
func TestRouter_SingleEdgeIgnoresCondition(t *testing.T) {
	nodes := []*types.Node{
		{ID: 1, NodeKey: "start", NodeType: types.NodeStart},
		{ID: 2, NodeKey: "a", NodeType: types.NodeApprove},
	}
	edges := []*types.Edge{
		{ID: 10, SourceNodeID: 1, TargetNodeID: 2, ConditionExpr: "amount > 5000", Priority: 1},
	}
	g := flow.NewGraph(1, nodes, edges)
	r := NewRouter(NewExprEvaluator())

	next, err := r.Next(g, 1, map[string]interface{}{"amount": 100})
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "a", next.NodeKey)
}

func TestRouter_NoRouteMatched(t *testing.T) {
	nodes := []*types.Node{
		{ID: 1, NodeKey: "cond", NodeType: types.NodeCondition},
		{ID: 2, NodeKey: "a", NodeType: types.NodeApprove},
		{ID: 3, NodeKey: "b", NodeType: types.NodeApprove},
	}
	edges := []*types.Edge{
		{ID: 10, SourceNodeID: 1, TargetNodeID: 2, ConditionExpr: "days > 3", Priority: 1},
		{ID: 11, SourceNodeID: 1, TargetNodeID: 3, ConditionExpr: "amount > 10000", Priority: 2},
	}
	g := flow.NewGraph(1, nodes, edges)
	r := NewRouter(NewExprEvaluator())

	_, err := r.Next(g, 1, map[string]interface{}{"days": 1, "amount": 100})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRouteMatched))
}

// 求值失败的边视为不命中，后面的默认边兜底
func TestRouter_EvalErrorSkipsEdge(t *testing.T) {
	nodes := []*types.Node{
		{ID: 1, NodeKey: "cond", NodeType: types.NodeCondition},
		{ID: 2, NodeKey: "a", NodeType: types.NodeApprove},
		{ID: 3, NodeKey: "b", NodeType: types.NodeApprove},
	}
	edges := []*types.Edge{
		{ID: 10, SourceNodeID: 1, TargetNodeID: 2, ConditionExpr: "days +", Priority: 1}, // 非法表达式
		{ID: 11, SourceNodeID: 1, TargetNodeID: 3, Priority: 2},
	}
	g := flow.NewGraph(1, nodes, edges)
	r := NewRouter(NewExprEvaluator())

	next, err := r.Next(g, 1, map[string]interface{}{"days": 1})
	require.NoError(t, err)
	assert.Equal(t, "b", next.NodeKey)
}
