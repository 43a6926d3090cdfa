// Package flow 提供流程图的内存表示与发布校验
package flow

import (
	"fmt"
	"sort"
	"strconv"

	dag "github.com/begmaroman/go-dag"

	"github.com/oaflow/oaflow/pkg/core/types"
)

// Graph 某个流程定义的节点/连线快照
// 节点按ID索引，出边按优先级升序预排序（同优先级按连线ID升序，保持插入顺序语义）
type Graph struct {
	WorkflowID int64
	nodes      map[int64]*types.Node
	nodesByKey map[string]*types.Node
	outgoing   map[int64][]*types.Edge
	edges      []*types.Edge
}

// graphVertex go-dag的节点包装
type graphVertex struct {
	id string
}

// ID 实现go-dag的Identifiable接口
func (v *graphVertex) ID() string {
	return v.id
}

// NewGraph 从节点与连线构建流程图
func NewGraph(workflowID int64, nodes []*types.Node, edges []*types.Edge) *Graph {
	g := &Graph{
		WorkflowID: workflowID,
		nodes:      make(map[int64]*types.Node, len(nodes)),
		nodesByKey: make(map[string]*types.Node, len(nodes)),
		outgoing:   make(map[int64][]*types.Edge),
		edges:      edges,
	}
	for _, n := range nodes {
		g.nodes[n.ID] = n
		g.nodesByKey[n.NodeKey] = n
	}
	for _, e := range edges {
		g.outgoing[e.SourceNodeID] = append(g.outgoing[e.SourceNodeID], e)
	}
	for _, out := range g.outgoing {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Priority != out[j].Priority {
				return out[i].Priority < out[j].Priority
			}
			return out[i].ID < out[j].ID
		})
	}
	return g
}

// Node 按ID查找节点
func (g *Graph) Node(id int64) (*types.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeByKey 按NodeKey查找节点
func (g *Graph) NodeByKey(key string) (*types.Node, bool) {
	n, ok := g.nodesByKey[key]
	return n, ok
}

// Nodes 返回所有节点
func (g *Graph) Nodes() []*types.Node {
	out := make([]*types.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges 返回所有连线
func (g *Graph) Edges() []*types.Edge {
	return g.edges
}

// StartNode 返回唯一的开始节点，不存在时返回nil
func (g *Graph) StartNode() *types.Node {
	for _, n := range g.nodes {
		if n.NodeType == types.NodeStart {
			return n
		}
	}
	return nil
}

// Outgoing 返回节点的出边，已按优先级升序排序
func (g *Graph) Outgoing(nodeID int64) []*types.Edge {
	return g.outgoing[nodeID]
}

// ValidateOptions 发布校验的上下文：节点审批人配置，按节点ID索引
type ValidateOptions struct {
	Approvers map[int64][]*types.ApproverConfig
}

// Validate 发布前的结构校验
// 规则：有且仅有一个START、至少一个END、不允许悬空连线、无环、
// START可达至少一个END、审批/抄送节点必须有审批人配置或无人处理策略、
// 同一节点的多组审批人配置必须使用相同的审批方式
func (g *Graph) Validate(opts ValidateOptions) error {
	var startCount, endCount int
	for _, n := range g.nodes {
		switch n.NodeType {
		case types.NodeStart:
			startCount++
		case types.NodeEnd:
			endCount++
		}
	}
	if startCount != 1 {
		return fmt.Errorf("流程必须包含且仅包含一个开始节点，当前有 %d 个", startCount)
	}
	if endCount == 0 {
		return fmt.Errorf("流程必须包含至少一个结束节点")
	}

	for _, e := range g.edges {
		if _, ok := g.nodes[e.SourceNodeID]; !ok {
			return fmt.Errorf("连线 %d 的源节点 %d 不存在", e.ID, e.SourceNodeID)
		}
		if _, ok := g.nodes[e.TargetNodeID]; !ok {
			return fmt.Errorf("连线 %d 的目标节点 %d 不存在", e.ID, e.TargetNodeID)
		}
	}

	if err := g.checkAcyclic(); err != nil {
		return err
	}

	if !g.endReachable() {
		return fmt.Errorf("从开始节点无法到达任何结束节点")
	}

	for _, n := range g.nodes {
		if n.NodeType != types.NodeApprove && n.NodeType != types.NodeCc {
			continue
		}
		configs := opts.Approvers[n.ID]
		if n.NodeType == types.NodeApprove && len(configs) == 0 {
			return fmt.Errorf("审批节点 %s 未配置审批人", n.NodeName)
		}
		var mode types.ApproveMode
		for _, c := range configs {
			if mode == "" {
				mode = c.ApproveMode
				continue
			}
			if c.ApproveMode != "" && c.ApproveMode != mode {
				return fmt.Errorf("节点 %s 的多组审批人配置使用了不同的审批方式（%s / %s）", n.NodeName, mode, c.ApproveMode)
			}
		}
	}

	return nil
}

// checkAcyclic 借助go-dag的AddEdge环检测判断流程图是否无环
func (g *Graph) checkAcyclic() error {
	d := dag.NewDAG[*graphVertex]()
	for id := range g.nodes {
		key := strconv.FormatInt(id, 10)
		if err := d.AddVertexByID(key, &graphVertex{id: key}); err != nil {
			return fmt.Errorf("构建校验图失败: %w", err)
		}
	}
	for _, e := range g.edges {
		src := strconv.FormatInt(e.SourceNodeID, 10)
		dst := strconv.FormatInt(e.TargetNodeID, 10)
		if err := d.AddEdge(src, dst); err != nil {
			return fmt.Errorf("流程图存在循环依赖: 连线 %s -> %s", src, dst)
		}
	}
	return nil
}

// endReachable BFS判断从START是否可达至少一个END节点
func (g *Graph) endReachable() bool {
	start := g.StartNode()
	if start == nil {
		return false
	}
	visited := map[int64]bool{start.ID: true}
	queue := []int64{start.ID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if n, ok := g.nodes[cur]; ok && n.NodeType == types.NodeEnd {
			return true
		}
		for _, e := range g.outgoing[cur] {
			if !visited[e.TargetNodeID] {
				visited[e.TargetNodeID] = true
				queue = append(queue, e.TargetNodeID)
			}
		}
	}
	return false
}
