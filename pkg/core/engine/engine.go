// Package engine 审批流引擎核心：发起、审批、路由与状态流转
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oaflow/oaflow/pkg/core/cache"
	"github.com/oaflow/oaflow/pkg/core/events"
	"github.com/oaflow/oaflow/pkg/core/flow"
	"github.com/oaflow/oaflow/pkg/core/types"
	"github.com/oaflow/oaflow/pkg/storage"
)

// Engine 审批流引擎（对外导出）
// 每个业务操作在一个事务内完成全部读写，事务提交后再发布事件
type Engine struct {
	store     storage.Store
	cache     cache.GraphCache
	bus       *events.Bus
	router    *Router
	resolver  *Resolver
	evaluator Evaluator

	adminUserID   string
	adminUserName string
	graphTTL      time.Duration
	taskTTL       time.Duration
}

// Option 引擎配置选项
type Option func(*Engine)

// WithGraphCache 设置流程图缓存
func WithGraphCache(c cache.GraphCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithEventBus 设置事件总线
func WithEventBus(b *events.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

// WithEvaluator 设置条件求值器
func WithEvaluator(ev Evaluator) Option {
	return func(e *Engine) { e.evaluator = ev }
}

// WithAdminUser 设置兜底管理员（无审批人策略为ADMIN时任务转给该用户）
func WithAdminUser(userID, userName string) Option {
	return func(e *Engine) {
		e.adminUserID = userID
		e.adminUserName = userName
	}
}

// WithGraphTTL 设置流程图缓存有效期
func WithGraphTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.graphTTL = ttl }
}

// WithTaskTTL 设置审批任务的处理时限，超时由调度器发布超时事件
func WithTaskTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.taskTTL = ttl }
}

// NewEngine 创建审批流引擎
func NewEngine(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		cache:         cache.NewMemoryGraphCache(),
		evaluator:     NewExprEvaluator(),
		resolver:      NewResolver(store),
		adminUserID:   "1",
		adminUserName: "管理员",
		graphTTL:      time.Hour,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.router = NewRouter(e.evaluator)
	return e
}

// flowGraph 流程图与逐节点的审批人配置
type flowGraph struct {
	graph     *flow.Graph
	approvers map[int64][]*types.ApproverConfig
}

// loadGraph 加载流程图，优先走缓存
func (e *Engine) loadGraph(ctx context.Context, workflowID int64) (*flowGraph, error) {
	if snap, ok := e.cache.Get(ctx, workflowID); ok {
		return buildFlowGraph(snap), nil
	}

	nodes, err := e.store.ListNodes(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("加载节点失败: %w", err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: 流程 %d 没有节点配置", ErrConfigFault, workflowID)
	}
	edges, err := e.store.ListEdges(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("加载连线失败: %w", err)
	}
	approvers, err := e.store.ListApproverConfigsByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("加载审批人配置失败: %w", err)
	}

	snap := &cache.FlowSnapshot{
		WorkflowID: workflowID,
		Nodes:      nodes,
		Edges:      edges,
		Approvers:  approvers,
	}
	if err := e.cache.Set(ctx, workflowID, snap, e.graphTTL); err != nil {
		log.Printf("[engine] 写入流程图缓存失败 workflowId=%d: %v", workflowID, err)
	}
	return buildFlowGraph(snap), nil
}

func buildFlowGraph(snap *cache.FlowSnapshot) *flowGraph {
	byNode := make(map[int64][]*types.ApproverConfig)
	for _, cfg := range snap.Approvers {
		byNode[cfg.NodeID] = append(byNode[cfg.NodeID], cfg)
	}
	return &flowGraph{
		graph:     flow.NewGraph(snap.WorkflowID, snap.Nodes, snap.Edges),
		approvers: byNode,
	}
}

// nodeApproveMode 取节点的审批方式，取ID最小的配置，缺省为OR
func (fg *flowGraph) nodeApproveMode(nodeID int64) types.ApproveMode {
	cfgs := fg.approvers[nodeID]
	if len(cfgs) == 0 || cfgs[0].ApproveMode == "" {
		return types.ModeOr
	}
	return cfgs[0].ApproveMode
}

// nodeNobodyHandler 取节点的无审批人策略，取第一条配置了策略的
func (fg *flowGraph) nodeNobodyHandler(nodeID int64) types.NobodyHandler {
	for _, cfg := range fg.approvers[nodeID] {
		if cfg.NobodyHandler != "" {
			return cfg.NobodyHandler
		}
	}
	return ""
}

// StartRequest 发起流程请求
type StartRequest struct {
	WorkflowID    int64
	Title         string
	FormData      map[string]interface{}
	Priority      int
	BusinessKey   string
	StartUserID   string
	StartUserName string
}

// StartInstance 发起流程实例
// 在一个事务内创建实例、写发起历史并推进到第一个审批节点
func (e *Engine) StartInstance(ctx context.Context, req StartRequest) (*types.Instance, error) {
	def, err := e.store.GetDefinition(ctx, req.WorkflowID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, fmt.Errorf("%w: 流程定义 %d", ErrNotFound, req.WorkflowID)
		}
		return nil, err
	}
	if def.Status != types.DefinitionPublished {
		return nil, fmt.Errorf("%w: 流程 %q 未发布", ErrInvalidState, def.WorkflowName)
	}

	fg, err := e.loadGraph(ctx, req.WorkflowID)
	if err != nil {
		return nil, err
	}
	start := fg.graph.StartNode()
	if start == nil {
		return nil, fmt.Errorf("%w: 流程 %d 缺少开始节点", ErrConfigFault, req.WorkflowID)
	}
	// 开始节点没有后续节点是配置缺陷，不能让新实例直接走到终态
	if len(fg.graph.Outgoing(start.ID)) == 0 {
		return nil, fmt.Errorf("%w: 流程 %d 的开始节点没有后续节点", ErrConfigFault, req.WorkflowID)
	}

	formJSON, err := marshalFormData(req.FormData)
	if err != nil {
		return nil, err
	}

	inst := &types.Instance{
		InstanceNo:    newInstanceNo(),
		WorkflowID:    def.ID,
		WorkflowKey:   def.WorkflowKey,
		WorkflowName:  def.WorkflowName,
		FormID:        def.FormID,
		FormData:      formJSON,
		Status:        types.InstanceRunning,
		CurrentNodeID: start.ID,
		StartUserID:   req.StartUserID,
		StartUserName: req.StartUserName,
		Title:         req.Title,
		Priority:      req.Priority,
		BusinessKey:   req.BusinessKey,
		StartTime:     time.Now(),
	}

	var pending []*events.Event
	err = e.store.InTx(ctx, func(tx storage.Store) error {
		id, err := tx.CreateInstance(ctx, inst)
		if err != nil {
			return fmt.Errorf("创建实例失败: %w", err)
		}
		inst.ID = id

		if _, err := tx.CreateHistory(ctx, &types.HistoryEntry{
			InstanceID:   id,
			NodeID:       start.ID,
			NodeName:     start.NodeName,
			Action:       types.ActionStart,
			OperatorID:   req.StartUserID,
			OperatorName: req.StartUserName,
			OperateTime:  time.Now(),
		}); err != nil {
			return fmt.Errorf("写发起历史失败: %w", err)
		}

		evs, err := e.advanceFrom(ctx, tx, fg, inst, start.ID)
		if err != nil {
			return err
		}
		pending = evs
		return nil
	})
	if err != nil {
		return nil, err
	}

	pending = append([]*events.Event{{
		Type:       events.EventInstanceStarted,
		InstanceID: inst.ID,
		UserID:     req.StartUserID,
		Data:       map[string]interface{}{"workflow_id": def.ID, "title": inst.Title},
	}}, pending...)
	e.publishAll(ctx, pending)
	return inst, nil
}

// advanceFrom 从fromNodeID起推进流程，直到停在审批节点或走到终点
// 抄送节点与条件节点不阻塞流程，循环中依次穿过
// 返回待发布的事件，由调用方在事务提交后发布
func (e *Engine) advanceFrom(ctx context.Context, tx storage.Store, fg *flowGraph, inst *types.Instance, fromNodeID int64) ([]*events.Event, error) {
	formData, err := unmarshalFormData(inst.FormData)
	if err != nil {
		return nil, err
	}
	env := conditionEnv(inst, formData)

	var pending []*events.Event
	cur := fromNodeID
	for {
		next, err := e.router.Next(fg.graph, cur, env)
		if err != nil {
			return nil, err
		}
		if next == nil || next.NodeType == types.NodeEnd {
			evs, err := e.finalize(ctx, tx, inst, types.InstanceApproved)
			if err != nil {
				return nil, err
			}
			return append(pending, evs...), nil
		}

		switch next.NodeType {
		case types.NodeCondition:
			cur = next.ID

		case types.NodeCc:
			evs, err := e.createCcRecords(ctx, tx, fg, inst, next)
			if err != nil {
				return nil, err
			}
			pending = append(pending, evs...)
			cur = next.ID

		case types.NodeApprove:
			created, evs, err := e.createTasks(ctx, tx, fg, inst, next)
			if err != nil {
				return nil, err
			}
			pending = append(pending, evs...)
			if !created {
				// 无审批人且策略为自动通过，穿过该节点
				cur = next.ID
				continue
			}
			inst.CurrentNodeID = next.ID
			if err := tx.UpdateInstance(ctx, inst); err != nil {
				return nil, fmt.Errorf("更新实例失败: %w", err)
			}
			return pending, nil

		default:
			return nil, fmt.Errorf("%w: 节点 %d 类型 %s 不允许作为流转目标", ErrConfigFault, next.ID, next.NodeType)
		}
	}
}

// createTasks 在审批节点上为全部审批人创建待办任务
// 返回是否创建了任务；解析结果为空时按无审批人策略处理：
// AUTO_PASS 返回false由调用方穿过节点，ADMIN 给管理员建任务，未配置策略视为配置缺陷
func (e *Engine) createTasks(ctx context.Context, tx storage.Store, fg *flowGraph, inst *types.Instance, node *types.Node) (bool, []*events.Event, error) {
	formData, err := unmarshalFormData(inst.FormData)
	if err != nil {
		return false, nil, err
	}
	assignees, err := e.resolver.Resolve(ctx, fg.approvers[node.ID], ResolveContext{
		StartUserID:   inst.StartUserID,
		StartUserName: inst.StartUserName,
		FormData:      formData,
	})
	if err != nil {
		return false, nil, err
	}

	if len(assignees) == 0 {
		switch fg.nodeNobodyHandler(node.ID) {
		case types.NobodyAutoPass:
			log.Printf("[engine] 节点 %s 无审批人，自动通过 instanceId=%d", node.NodeName, inst.ID)
			return false, nil, nil
		case types.NobodyAdmin:
			assignees = []types.Assignee{{UserID: e.adminUserID, UserName: e.adminUserName}}
		default:
			return false, nil, fmt.Errorf("%w: 节点 %s 解析不到审批人且未配置兜底策略", ErrConfigFault, node.NodeName)
		}
	}

	var dueTime *time.Time
	if e.taskTTL > 0 {
		t := time.Now().Add(e.taskTTL)
		dueTime = &t
	}

	var pending []*events.Event
	for _, a := range assignees {
		task := &types.Task{
			InstanceID:   inst.ID,
			InstanceNo:   inst.InstanceNo,
			NodeID:       node.ID,
			NodeKey:      node.NodeKey,
			NodeName:     node.NodeName,
			NodeType:     node.NodeType,
			AssigneeID:   a.UserID,
			AssigneeName: a.UserName,
			Status:       types.TaskPending,
			Priority:     inst.Priority,
			CreateTime:   time.Now(),
			DueTime:      dueTime,
		}
		id, err := tx.CreateTask(ctx, task)
		if err != nil {
			return false, nil, fmt.Errorf("创建任务失败: %w", err)
		}
		pending = append(pending, &events.Event{
			Type:       events.EventTaskCreated,
			InstanceID: inst.ID,
			TaskID:     id,
			UserID:     a.UserID,
			Data:       map[string]interface{}{"node_name": node.NodeName},
		})
	}
	return true, pending, nil
}

// createCcRecords 在抄送节点上为全部抄送人创建抄送记录，不阻塞流程
func (e *Engine) createCcRecords(ctx context.Context, tx storage.Store, fg *flowGraph, inst *types.Instance, node *types.Node) ([]*events.Event, error) {
	formData, err := unmarshalFormData(inst.FormData)
	if err != nil {
		return nil, err
	}
	assignees, err := e.resolver.Resolve(ctx, fg.approvers[node.ID], ResolveContext{
		StartUserID:   inst.StartUserID,
		StartUserName: inst.StartUserName,
		FormData:      formData,
	})
	if err != nil {
		return nil, err
	}
	if len(assignees) == 0 {
		log.Printf("[engine] 抄送节点 %s 解析不到抄送人 instanceId=%d", node.NodeName, inst.ID)
		return nil, nil
	}

	var pending []*events.Event
	for _, a := range assignees {
		id, err := tx.CreateCc(ctx, &types.CcRecord{
			InstanceID: inst.ID,
			InstanceNo: inst.InstanceNo,
			NodeID:     node.ID,
			NodeName:   node.NodeName,
			CcUserID:   a.UserID,
			CcUserName: a.UserName,
			Status:     types.CcUnread,
			CreateTime: time.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("创建抄送记录失败: %w", err)
		}
		pending = append(pending, &events.Event{
			Type:       events.EventCcCreated,
			InstanceID: inst.ID,
			TaskID:     id,
			UserID:     a.UserID,
			Data:       map[string]interface{}{"node_name": node.NodeName},
		})
	}
	return pending, nil
}

// finalize 把实例置为终态
func (e *Engine) finalize(ctx context.Context, tx storage.Store, inst *types.Instance, status types.InstanceStatus) ([]*events.Event, error) {
	now := time.Now()
	duration := now.Sub(inst.StartTime).Milliseconds()
	inst.Status = status
	inst.EndTime = &now
	inst.DurationMs = &duration
	inst.CurrentNodeID = 0
	if err := tx.UpdateInstance(ctx, inst); err != nil {
		return nil, fmt.Errorf("更新实例终态失败: %w", err)
	}
	return []*events.Event{{
		Type:       events.EventInstanceFinished,
		InstanceID: inst.ID,
		Data:       map[string]interface{}{"status": string(status)},
	}}, nil
}

// publishAll 逐条发布事件，失败只记录日志
func (e *Engine) publishAll(ctx context.Context, evs []*events.Event) {
	if e.bus == nil {
		return
	}
	for _, ev := range evs {
		if err := e.bus.Publish(ctx, ev); err != nil {
			log.Printf("[engine] 发布事件失败 type=%s instanceId=%d: %v", ev.Type, ev.InstanceID, err)
		}
	}
}

// newInstanceNo 生成实例编号，形如 OA20240102150405-a1b2c3d4
func newInstanceNo() string {
	short := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("OA%s-%s", time.Now().Format("20060102150405"), short)
}

func marshalFormData(data map[string]interface{}) (string, error) {
	if len(data) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("序列化表单数据失败: %w", err)
	}
	return string(b), nil
}

// conditionEnv 条件求值环境：表单数据加上发起人、标题、优先级内置字段
// 内置字段覆盖表单里的同名字段
func conditionEnv(inst *types.Instance, formData map[string]interface{}) map[string]interface{} {
	env := make(map[string]interface{}, len(formData)+4)
	for k, v := range formData {
		env[k] = v
	}
	env["startUserId"] = inst.StartUserID
	env["startUserName"] = inst.StartUserName
	env["title"] = inst.Title
	env["priority"] = inst.Priority
	return env
}

func unmarshalFormData(raw string) (map[string]interface{}, error) {
	if raw == "" {
		return map[string]interface{}{}, nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("解析表单数据失败: %w", err)
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	return data, nil
}
