package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/oaflow/oaflow/pkg/core/cache"
	"github.com/oaflow/oaflow/pkg/core/flow"
	"github.com/oaflow/oaflow/pkg/core/types"
	"github.com/oaflow/oaflow/pkg/storage"
)

// DefinitionService 流程定义管理（对外导出）
// 定义的增删改、流程图配置保存与发布校验
type DefinitionService struct {
	store storage.Store
	cache cache.GraphCache
}

// NewDefinitionService 创建流程定义服务
func NewDefinitionService(store storage.Store, graphCache cache.GraphCache) *DefinitionService {
	if graphCache == nil {
		graphCache = cache.NewMemoryGraphCache()
	}
	return &DefinitionService{store: store, cache: graphCache}
}

// CreateDefinition 创建流程定义，初始为草稿
func (s *DefinitionService) CreateDefinition(ctx context.Context, def *types.Definition) (*types.Definition, error) {
	if def.WorkflowKey == "" || def.WorkflowName == "" {
		return nil, fmt.Errorf("%w: 流程标识与名称不能为空", ErrInvalidState)
	}
	def.Status = types.DefinitionDraft
	if def.Version <= 0 {
		def.Version = 1
	}
	def.CreateTime = time.Now()
	id, err := s.store.CreateDefinition(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("创建流程定义失败: %w", err)
	}
	def.ID = id
	return def, nil
}

// UpdateDefinition 更新流程定义基本信息
func (s *DefinitionService) UpdateDefinition(ctx context.Context, def *types.Definition) error {
	cur, err := s.store.GetDefinition(ctx, def.ID)
	if err != nil {
		if err == storage.ErrNotFound {
			return fmt.Errorf("%w: 流程定义 %d", ErrNotFound, def.ID)
		}
		return err
	}
	// 状态由发布/停用接口管理，不随基本信息修改
	def.Status = cur.Status
	def.Version = cur.Version
	if err := s.store.UpdateDefinition(ctx, def); err != nil {
		return fmt.Errorf("更新流程定义失败: %w", err)
	}
	return nil
}

// DeleteDefinition 删除流程定义及其流程图配置
// 有运行中实例的流程不允许删除
func (s *DefinitionService) DeleteDefinition(ctx context.Context, id int64) error {
	if _, err := s.store.GetDefinition(ctx, id); err != nil {
		if err == storage.ErrNotFound {
			return fmt.Errorf("%w: 流程定义 %d", ErrNotFound, id)
		}
		return err
	}
	running, err := s.store.CountRunningInstances(ctx, id)
	if err != nil {
		return fmt.Errorf("统计运行中实例失败: %w", err)
	}
	if running > 0 {
		return fmt.Errorf("%w: 还有 %d 个运行中的实例", ErrInvalidState, running)
	}

	err = s.store.InTx(ctx, func(tx storage.Store) error {
		if err := tx.DeleteFlowConfig(ctx, id); err != nil {
			return fmt.Errorf("删除流程图配置失败: %w", err)
		}
		return tx.DeleteDefinition(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// GetDefinition 获取流程定义
func (s *DefinitionService) GetDefinition(ctx context.Context, id int64) (*types.Definition, error) {
	def, err := s.store.GetDefinition(ctx, id)
	if err == storage.ErrNotFound {
		return nil, fmt.Errorf("%w: 流程定义 %d", ErrNotFound, id)
	}
	return def, err
}

// ListDefinitions 分页查询流程定义
func (s *DefinitionService) ListDefinitions(ctx context.Context, filter storage.DefinitionFilter) ([]*types.Definition, int64, error) {
	return s.store.ListDefinitions(ctx, filter)
}

// FlowConfigDetail 流程图配置详情
type FlowConfigDetail struct {
	Definition *types.Definition       `json:"definition"`
	Nodes      []*types.Node           `json:"nodes"`
	Edges      []*types.Edge           `json:"edges"`
	Approvers  []*types.ApproverConfig `json:"approvers"`
}

// GetFlowConfig 获取流程定义及完整流程图配置
func (s *DefinitionService) GetFlowConfig(ctx context.Context, id int64) (*FlowConfigDetail, error) {
	def, err := s.GetDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	nodes, err := s.store.ListNodes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("加载节点失败: %w", err)
	}
	edges, err := s.store.ListEdges(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("加载连线失败: %w", err)
	}
	approvers, err := s.store.ListApproverConfigsByWorkflow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("加载审批人配置失败: %w", err)
	}
	return &FlowConfigDetail{Definition: def, Nodes: nodes, Edges: edges, Approvers: approvers}, nil
}

// FlowConfigInput 保存流程图配置的输入
// 节点、连线与审批人配置以node_key互相引用，保存时换成数据库ID
type FlowConfigInput struct {
	Nodes     []*types.Node
	Edges     []*types.Edge                      // 通过SourceNodeKey/TargetNodeKey引用节点
	Approvers map[string][]*types.ApproverConfig // key为node_key
	Form      *types.FormDef                     // 可选的表单结构，随流程图一起保存
}

// SaveFlowConfig 整体替换流程图配置
// 一个事务内先清空旧配置再写入新配置，已发布的流程保存后回到草稿
func (s *DefinitionService) SaveFlowConfig(ctx context.Context, workflowID int64, input FlowConfigInput) error {
	def, err := s.store.GetDefinition(ctx, workflowID)
	if err != nil {
		if err == storage.ErrNotFound {
			return fmt.Errorf("%w: 流程定义 %d", ErrNotFound, workflowID)
		}
		return err
	}

	err = s.store.InTx(ctx, func(tx storage.Store) error {
		if err := tx.DeleteFlowConfig(ctx, workflowID); err != nil {
			return fmt.Errorf("清空旧配置失败: %w", err)
		}

		idByKey := make(map[string]int64, len(input.Nodes))
		for _, node := range input.Nodes {
			if node.NodeKey == "" {
				return fmt.Errorf("%w: 节点 %q 缺少node_key", ErrInvalidState, node.NodeName)
			}
			if _, dup := idByKey[node.NodeKey]; dup {
				return fmt.Errorf("%w: node_key %q 重复", ErrInvalidState, node.NodeKey)
			}
			node.WorkflowID = workflowID
			node.CreateTime = time.Now()
			id, err := tx.InsertNode(ctx, node)
			if err != nil {
				return fmt.Errorf("保存节点失败: %w", err)
			}
			node.ID = id
			idByKey[node.NodeKey] = id
		}

		for _, edge := range input.Edges {
			srcID, ok := idByKey[edge.SourceNodeKey]
			if !ok {
				return fmt.Errorf("%w: 连线引用了不存在的节点 %q", ErrInvalidState, edge.SourceNodeKey)
			}
			dstID, ok := idByKey[edge.TargetNodeKey]
			if !ok {
				return fmt.Errorf("%w: 连线引用了不存在的节点 %q", ErrInvalidState, edge.TargetNodeKey)
			}
			edge.WorkflowID = workflowID
			edge.SourceNodeID = srcID
			edge.TargetNodeID = dstID
			edge.CreateTime = time.Now()
			if _, err := tx.InsertEdge(ctx, edge); err != nil {
				return fmt.Errorf("保存连线失败: %w", err)
			}
		}

		for nodeKey, cfgs := range input.Approvers {
			nodeID, ok := idByKey[nodeKey]
			if !ok {
				return fmt.Errorf("%w: 审批人配置引用了不存在的节点 %q", ErrInvalidState, nodeKey)
			}
			for _, cfg := range cfgs {
				cfg.NodeID = nodeID
				cfg.CreateTime = time.Now()
				if _, err := tx.InsertApproverConfig(ctx, cfg); err != nil {
					return fmt.Errorf("保存审批人配置失败: %w", err)
				}
			}
		}

		// 表单与流程图同事务保存：已有表单就更新，没有就新建并挂到定义上
		defChanged := false
		if input.Form != nil {
			form := input.Form
			if def.FormID != nil {
				form.ID = *def.FormID
				now := time.Now()
				form.UpdateTime = &now
				if err := tx.UpdateForm(ctx, form); err != nil {
					return fmt.Errorf("更新表单失败: %w", err)
				}
			} else {
				form.CreateTime = time.Now()
				formID, err := tx.CreateForm(ctx, form)
				if err != nil {
					return fmt.Errorf("保存表单失败: %w", err)
				}
				form.ID = formID
				def.FormID = &formID
				defChanged = true
			}
		}

		// 配置变更后需要重新发布
		if def.Status == types.DefinitionPublished {
			def.Status = types.DefinitionDraft
			def.Version++
			defChanged = true
		}
		if defChanged {
			if err := tx.UpdateDefinition(ctx, def); err != nil {
				return fmt.Errorf("更新定义失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, workflowID)
	return nil
}

// Publish 校验流程图并发布流程定义
func (s *DefinitionService) Publish(ctx context.Context, workflowID int64) error {
	def, err := s.store.GetDefinition(ctx, workflowID)
	if err != nil {
		if err == storage.ErrNotFound {
			return fmt.Errorf("%w: 流程定义 %d", ErrNotFound, workflowID)
		}
		return err
	}
	if def.Status == types.DefinitionPublished {
		return nil
	}

	nodes, err := s.store.ListNodes(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("加载节点失败: %w", err)
	}
	edges, err := s.store.ListEdges(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("加载连线失败: %w", err)
	}
	approvers, err := s.store.ListApproverConfigsByWorkflow(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("加载审批人配置失败: %w", err)
	}

	byNode := make(map[int64][]*types.ApproverConfig)
	for _, cfg := range approvers {
		byNode[cfg.NodeID] = append(byNode[cfg.NodeID], cfg)
	}
	g := flow.NewGraph(workflowID, nodes, edges)
	if err := g.Validate(flow.ValidateOptions{Approvers: byNode}); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigFault, err)
	}

	def.Status = types.DefinitionPublished
	if err := s.store.UpdateDefinition(ctx, def); err != nil {
		return fmt.Errorf("发布流程定义失败: %w", err)
	}
	s.invalidate(ctx, workflowID)
	return nil
}

// Disable 停用流程定义，之后不能再发起新实例，运行中的实例不受影响
func (s *DefinitionService) Disable(ctx context.Context, workflowID int64) error {
	def, err := s.store.GetDefinition(ctx, workflowID)
	if err != nil {
		if err == storage.ErrNotFound {
			return fmt.Errorf("%w: 流程定义 %d", ErrNotFound, workflowID)
		}
		return err
	}
	if def.Status != types.DefinitionPublished {
		return fmt.Errorf("%w: 只有已发布的流程可以停用", ErrInvalidState)
	}
	def.Status = types.DefinitionDisabled
	if err := s.store.UpdateDefinition(ctx, def); err != nil {
		return fmt.Errorf("停用流程定义失败: %w", err)
	}
	s.invalidate(ctx, workflowID)
	return nil
}

func (s *DefinitionService) invalidate(ctx context.Context, workflowID int64) {
	if err := s.cache.Invalidate(ctx, workflowID); err != nil {
		log.Printf("[definition] 清除流程图缓存失败 workflowId=%d: %v", workflowID, err)
	}
}
