// Package storage 定义审批流引擎的持久化接口
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/oaflow/oaflow/pkg/core/types"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// PageQuery 分页参数
type PageQuery struct {
	PageNum  int // 从1开始
	PageSize int
}

// Offset 计算偏移量
func (p PageQuery) Offset() int {
	if p.PageNum <= 1 {
		return 0
	}
	return (p.PageNum - 1) * p.Limit()
}

// Limit 计算每页条数
func (p PageQuery) Limit() int {
	if p.PageSize <= 0 {
		return 10
	}
	return p.PageSize
}

// DefinitionFilter 流程定义查询条件
type DefinitionFilter struct {
	WorkflowName string
	Category     string
	Status       *int
	Page         PageQuery
}

// InstanceFilter 流程实例查询条件
type InstanceFilter struct {
	StartUserID string
	Status      types.InstanceStatus
	Page        PageQuery
}

// Store 审批流存储接口
// InTx 开启事务并以事务态Store回调fn；事务态Store上再调用InTx时直接复用当前事务
type Store interface {
	InTx(ctx context.Context, fn func(Store) error) error

	// ========== 流程定义 ==========
	CreateDefinition(ctx context.Context, def *types.Definition) (int64, error)
	GetDefinition(ctx context.Context, id int64) (*types.Definition, error)
	UpdateDefinition(ctx context.Context, def *types.Definition) error
	DeleteDefinition(ctx context.Context, id int64) error
	ListDefinitions(ctx context.Context, filter DefinitionFilter) ([]*types.Definition, int64, error)

	// ========== 流程图配置 ==========
	InsertNode(ctx context.Context, node *types.Node) (int64, error)
	GetNode(ctx context.Context, id int64) (*types.Node, error)
	ListNodes(ctx context.Context, workflowID int64) ([]*types.Node, error)
	InsertEdge(ctx context.Context, edge *types.Edge) (int64, error)
	ListEdges(ctx context.Context, workflowID int64) ([]*types.Edge, error)
	InsertApproverConfig(ctx context.Context, cfg *types.ApproverConfig) (int64, error)
	ListApproverConfigs(ctx context.Context, nodeID int64) ([]*types.ApproverConfig, error)
	ListApproverConfigsByWorkflow(ctx context.Context, workflowID int64) ([]*types.ApproverConfig, error)
	// DeleteFlowConfig 删除流程的全部节点、连线与审批人配置
	DeleteFlowConfig(ctx context.Context, workflowID int64) error

	// ========== 表单 ==========
	CreateForm(ctx context.Context, form *types.FormDef) (int64, error)
	GetForm(ctx context.Context, id int64) (*types.FormDef, error)
	UpdateForm(ctx context.Context, form *types.FormDef) error

	// ========== 流程实例 ==========
	CreateInstance(ctx context.Context, inst *types.Instance) (int64, error)
	GetInstance(ctx context.Context, id int64) (*types.Instance, error)
	// GetInstanceForUpdate 加锁读取实例行，用于串行化同一实例上的并发审批
	GetInstanceForUpdate(ctx context.Context, id int64) (*types.Instance, error)
	UpdateInstance(ctx context.Context, inst *types.Instance) error
	ListInstances(ctx context.Context, filter InstanceFilter) ([]*types.Instance, int64, error)
	CountRunningInstances(ctx context.Context, workflowID int64) (int64, error)

	// ========== 审批任务 ==========
	CreateTask(ctx context.Context, task *types.Task) (int64, error)
	GetTask(ctx context.Context, id int64) (*types.Task, error)
	UpdateTask(ctx context.Context, task *types.Task) error
	ListTasksByInstance(ctx context.Context, instanceID int64) ([]*types.Task, error)
	ListTasksAtNode(ctx context.Context, instanceID, nodeID int64) ([]*types.Task, error)
	// CancelPendingTasks 将实例全部PENDING任务置为CANCELED，返回受影响行数
	CancelPendingTasks(ctx context.Context, instanceID int64) (int64, error)
	ListPendingTasksByAssignee(ctx context.Context, userID string, page PageQuery) ([]*types.Task, int64, error)
	ListOverdueTasks(ctx context.Context, before time.Time) ([]*types.Task, error)

	// ========== 抄送 ==========
	CreateCc(ctx context.Context, cc *types.CcRecord) (int64, error)
	GetCc(ctx context.Context, id int64) (*types.CcRecord, error)
	UpdateCc(ctx context.Context, cc *types.CcRecord) error
	ListCcByUser(ctx context.Context, userID string, page PageQuery) ([]*types.CcRecord, int64, error)

	// ========== 审批历史 ==========
	CreateHistory(ctx context.Context, entry *types.HistoryEntry) (int64, error)
	ListHistory(ctx context.Context, instanceID int64) ([]*types.HistoryEntry, error)

	// ========== 组织架构 ==========
	CreateUser(ctx context.Context, user *types.User) (int64, error)
	GetUser(ctx context.Context, id int64) (*types.User, error)
	SearchUsers(ctx context.Context, keyword string) ([]*types.User, error)
	ListUsersByDept(ctx context.Context, deptID int64) ([]*types.User, error)
	ListUsersByRole(ctx context.Context, roleCode string) ([]*types.User, error)
	CreateDept(ctx context.Context, dept *types.Dept) (int64, error)
	GetDept(ctx context.Context, id int64) (*types.Dept, error)
	ListDepts(ctx context.Context) ([]*types.Dept, error)
	CreateRole(ctx context.Context, role *types.Role) (int64, error)
	ListRoles(ctx context.Context) ([]*types.Role, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
}
