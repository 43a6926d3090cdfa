package engine

import (
	"fmt"
	"log"

	"github.com/oaflow/oaflow/pkg/core/flow"
	"github.com/oaflow/oaflow/pkg/core/types"
)

// Router 流转路由，按优先级在出边中选择下一个节点
type Router struct {
	evaluator Evaluator
}

// NewRouter 创建路由器
func NewRouter(evaluator Evaluator) *Router {
	return &Router{evaluator: evaluator}
}

// Next 计算当前节点之后的下一个节点
// 只有一条出边时直接走这条边，不看条件；多条出边按优先级升序逐条判断，
// 第一条命中即返回：
//   - 条件表达式为空的边是默认路由，无条件命中
//   - 表达式求值失败的边视为不命中，记录日志后继续
//
// 没有出边时返回 (nil, nil) 表示流程走到尽头；
// 有出边但全部不命中时返回 ErrNoRouteMatched
func (r *Router) Next(g *flow.Graph, nodeID int64, formData map[string]interface{}) (*types.Node, error) {
	edges := g.Outgoing(nodeID)
	if len(edges) == 0 {
		return nil, nil
	}
	if len(edges) == 1 {
		return r.target(g, edges[0])
	}
	for _, edge := range edges {
		if edge.ConditionExpr == "" {
			return r.target(g, edge)
		}
		matched, err := r.evaluator.Evaluate(edge.ConditionExpr, formData)
		if err != nil {
			log.Printf("[router] 条件求值失败 edgeId=%d expr=%q: %v", edge.ID, edge.ConditionExpr, err)
			continue
		}
		if matched {
			return r.target(g, edge)
		}
	}
	return nil, fmt.Errorf("%w: 节点 %d 的 %d 条出边均未命中", ErrNoRouteMatched, nodeID, len(edges))
}

func (r *Router) target(g *flow.Graph, edge *types.Edge) (*types.Node, error) {
	node, ok := g.Node(edge.TargetNodeID)
	if !ok {
		return nil, fmt.Errorf("%w: 连线 %d 指向不存在的节点 %d", ErrConfigFault, edge.ID, edge.TargetNodeID)
	}
	return node, nil
}
