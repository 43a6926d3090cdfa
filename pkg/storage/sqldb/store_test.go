package sqldb_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaflow/oaflow/pkg/core/types"
	"github.com/oaflow/oaflow/pkg/storage"
	"github.com/oaflow/oaflow/pkg/storage/sqldb"
	"github.com/oaflow/oaflow/pkg/storage/sqlite"
)

func newStore(t *testing.T) *sqldb.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newInstance(workflowID int64, status types.InstanceStatus) *types.Instance {
	return &types.Instance{
		InstanceNo:    "OA20260831001",
		WorkflowID:    workflowID,
		WorkflowKey:   "leave",
		WorkflowName:  "请假审批",
		Status:        status,
		StartUserID:   "100",
		StartUserName: "张三",
		Title:         "张三的请假申请",
	}
}

func newTask(instanceID int64, assigneeID string, status types.TaskStatus) *types.Task {
	return &types.Task{
		InstanceID:   instanceID,
		InstanceNo:   "OA20260831001",
		NodeID:       2,
		NodeKey:      "approve",
		NodeName:     "审批",
		NodeType:     types.NodeApprove,
		AssigneeID:   assigneeID,
		AssigneeName: "审批人" + assigneeID,
		Status:       status,
	}
}

func TestStore_DefinitionCRUD(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	id, err := store.CreateDefinition(ctx, &types.Definition{
		WorkflowKey:  "leave",
		WorkflowName: "请假审批",
		Category:     "人事",
		Version:      1,
		Status:       types.DefinitionDraft,
	})
	require.NoError(t, err)
	require.Positive(t, id)

	def, err := store.GetDefinition(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "leave", def.WorkflowKey)
	assert.Equal(t, "请假审批", def.WorkflowName)
	assert.False(t, def.CreateTime.IsZero())

	def.WorkflowName = "年假审批"
	def.Status = types.DefinitionPublished
	require.NoError(t, store.UpdateDefinition(ctx, def))

	def, err = store.GetDefinition(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "年假审批", def.WorkflowName)
	assert.Equal(t, types.DefinitionPublished, def.Status)
	require.NotNil(t, def.UpdateTime)

	require.NoError(t, store.DeleteDefinition(ctx, id))
	_, err = store.GetDefinition(ctx, id)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestStore_ListDefinitionsFilter(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	published := types.DefinitionPublished
	seeds := []*types.Definition{
		{WorkflowKey: "leave", WorkflowName: "请假审批", Category: "人事", Status: types.DefinitionPublished},
		{WorkflowKey: "expense", WorkflowName: "报销审批", Category: "财务", Status: types.DefinitionPublished},
		{WorkflowKey: "seal", WorkflowName: "用印申请", Category: "行政", Status: types.DefinitionDraft},
	}
	for _, def := range seeds {
		_, err := store.CreateDefinition(ctx, def)
		require.NoError(t, err)
	}

	// 按分类过滤
	defs, total, err := store.ListDefinitions(ctx, storage.DefinitionFilter{Category: "财务"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, defs, 1)
	assert.Equal(t, "expense", defs[0].WorkflowKey)

	// 按状态过滤
	_, total, err = store.ListDefinitions(ctx, storage.DefinitionFilter{Status: &published})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// 名称模糊匹配
	defs, total, err = store.ListDefinitions(ctx, storage.DefinitionFilter{WorkflowName: "审批"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// 分页只影响返回条数，不影响总数
	defs, total, err = store.ListDefinitions(ctx, storage.DefinitionFilter{
		Page: storage.PageQuery{PageNum: 1, PageSize: 2},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, defs, 2)
}

func TestStore_InTxCommit(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	var id int64
	err := store.InTx(ctx, func(tx storage.Store) error {
		var err error
		id, err = tx.CreateDefinition(ctx, &types.Definition{WorkflowKey: "leave", WorkflowName: "请假审批"})
		return err
	})
	require.NoError(t, err)

	_, err = store.GetDefinition(ctx, id)
	require.NoError(t, err)
}

func TestStore_InTxRollback(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	boom := errors.New("业务失败")

	var id int64
	err := store.InTx(ctx, func(tx storage.Store) error {
		var err error
		id, err = tx.CreateDefinition(ctx, &types.Definition{WorkflowKey: "leave", WorkflowName: "请假审批"})
		require.NoError(t, err)
		return boom
	})
	// 业务错误原样透出，事务内的写入全部回滚
	require.True(t, errors.Is(err, boom))
	_, err = store.GetDefinition(ctx, id)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestStore_InTxReentrant(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	var id int64
	err := store.InTx(ctx, func(tx storage.Store) error {
		// 事务态Store上再开事务直接复用当前事务
		return tx.InTx(ctx, func(inner storage.Store) error {
			var err error
			id, err = inner.CreateDefinition(ctx, &types.Definition{WorkflowKey: "leave", WorkflowName: "请假审批"})
			return err
		})
	})
	require.NoError(t, err)

	_, err = store.GetDefinition(ctx, id)
	require.NoError(t, err)
}

func TestStore_CancelPendingTasks(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	instID, err := store.CreateInstance(ctx, newInstance(1, types.InstanceRunning))
	require.NoError(t, err)

	id1, err := store.CreateTask(ctx, newTask(instID, "1", types.TaskPending))
	require.NoError(t, err)
	id2, err := store.CreateTask(ctx, newTask(instID, "2", types.TaskPending))
	require.NoError(t, err)
	id3, err := store.CreateTask(ctx, newTask(instID, "3", types.TaskApproved))
	require.NoError(t, err)

	affected, err := store.CancelPendingTasks(ctx, instID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)

	for _, id := range []int64{id1, id2} {
		task, err := store.GetTask(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, types.TaskCanceled, task.Status)
		assert.NotNil(t, task.CompleteTime)
	}
	// 已完成的任务不受影响
	task, err := store.GetTask(ctx, id3)
	require.NoError(t, err)
	assert.Equal(t, types.TaskApproved, task.Status)
}

func TestStore_ListPendingTasksByAssignee(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	instID, err := store.CreateInstance(ctx, newInstance(1, types.InstanceRunning))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := store.CreateTask(ctx, newTask(instID, "1", types.TaskPending))
		require.NoError(t, err)
	}
	_, err = store.CreateTask(ctx, newTask(instID, "1", types.TaskApproved))
	require.NoError(t, err)
	_, err = store.CreateTask(ctx, newTask(instID, "2", types.TaskPending))
	require.NoError(t, err)

	tasks, total, err := store.ListPendingTasksByAssignee(ctx, "1", storage.PageQuery{PageNum: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, types.TaskPending, task.Status)
		assert.Equal(t, "1", task.AssigneeID)
	}
}

func TestStore_ListOverdueTasks(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	instID, err := store.CreateInstance(ctx, newInstance(1, types.InstanceRunning))
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	overdue := newTask(instID, "1", types.TaskPending)
	overdue.DueTime = &past
	overdueID, err := store.CreateTask(ctx, overdue)
	require.NoError(t, err)

	notDue := newTask(instID, "2", types.TaskPending)
	notDue.DueTime = &future
	_, err = store.CreateTask(ctx, notDue)
	require.NoError(t, err)

	// 没有截止时间的任务永远不算超时
	_, err = store.CreateTask(ctx, newTask(instID, "3", types.TaskPending))
	require.NoError(t, err)

	tasks, err := store.ListOverdueTasks(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, overdueID, tasks[0].ID)
}

func TestStore_ListInstancesFilter(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	running := newInstance(1, types.InstanceRunning)
	_, err := store.CreateInstance(ctx, running)
	require.NoError(t, err)

	approved := newInstance(1, types.InstanceApproved)
	approved.StartUserID = "200"
	approved.StartUserName = "李四"
	_, err = store.CreateInstance(ctx, approved)
	require.NoError(t, err)

	_, total, err := store.ListInstances(ctx, storage.InstanceFilter{Status: types.InstanceRunning})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	insts, total, err := store.ListInstances(ctx, storage.InstanceFilter{StartUserID: "200"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, insts, 1)
	assert.Equal(t, "李四", insts[0].StartUserName)

	running2, err := store.CountRunningInstances(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, running2)
}

func TestStore_DeleteFlowConfig(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	nodeID, err := store.InsertNode(ctx, &types.Node{WorkflowID: 1, NodeKey: "start", NodeName: "开始", NodeType: types.NodeStart})
	require.NoError(t, err)
	_, err = store.InsertEdge(ctx, &types.Edge{WorkflowID: 1, SourceNodeID: nodeID, TargetNodeID: nodeID, Priority: 1})
	require.NoError(t, err)
	_, err = store.InsertApproverConfig(ctx, &types.ApproverConfig{NodeID: nodeID, ApproverType: types.ApproverSelf})
	require.NoError(t, err)

	require.NoError(t, store.DeleteFlowConfig(ctx, 1))

	nodes, err := store.ListNodes(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, nodes)
	edges, err := store.ListEdges(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, edges)
	cfgs, err := store.ListApproverConfigs(ctx, nodeID)
	require.NoError(t, err)
	assert.Empty(t, cfgs)
}

func TestStore_OrgQueries(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	deptID, err := store.CreateDept(ctx, &types.Dept{DeptCode: "rd", DeptName: "研发部"})
	require.NoError(t, err)
	uid1, err := store.CreateUser(ctx, &types.User{Username: "zhangsan", RealName: "张三", DeptID: &deptID})
	require.NoError(t, err)
	uid2, err := store.CreateUser(ctx, &types.User{Username: "lisi", RealName: "李四", DeptID: &deptID})
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, &types.User{Username: "wangwu", RealName: "王五"})
	require.NoError(t, err)

	roleID, err := store.CreateRole(ctx, &types.Role{RoleCode: "hr", RoleName: "人事"})
	require.NoError(t, err)
	require.NoError(t, store.AssignRole(ctx, uid2, roleID))

	users, err := store.ListUsersByDept(ctx, deptID)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, uid1, users[0].ID)

	users, err = store.ListUsersByRole(ctx, "hr")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "李四", users[0].RealName)

	// 用户名和姓名都能搜到
	users, err = store.SearchUsers(ctx, "wang")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "王五", users[0].RealName)
	users, err = store.SearchUsers(ctx, "张")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "zhangsan", users[0].Username)
}
