// Package sqldb 基于sqlx的Store通用实现，按方言适配sqlite/mysql/postgres
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oaflow/oaflow/pkg/core/types"
	"github.com/oaflow/oaflow/pkg/storage"
)

// Store storage.Store的sqlx实现（对外导出）
// db与tx二选一：事务态Store持有tx，InTx直接复用
type Store struct {
	db      *sqlx.DB
	tx      *sqlx.Tx
	dialect storage.Dialect
}

// New 创建Store并初始化表结构
func New(db *sqlx.DB, dialect storage.Dialect) (*Store, error) {
	s := &Store{db: db, dialect: dialect}
	for _, stmt := range dialect.ConfigureSQL() {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("配置数据库失败: %w", err)
		}
	}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return s, nil
}

// Open 通过DSN创建Store
func Open(dsn string, dialect storage.Dialect) (*Store, error) {
	db, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	return New(db, dialect)
}

// DB 获取底层数据库连接
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initSchema 初始化数据库表结构
func (s *Store) initSchema() error {
	for _, stmt := range s.dialect.Schema() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("执行DDL失败: %w", err)
		}
	}
	return nil
}

// ext 返回当前执行上下文（事务优先）
func (s *Store) ext() sqlx.ExtContext {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// InTx 开启事务执行fn；事务态Store上直接复用当前事务
func (s *Store) InTx(ctx context.Context, fn func(storage.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	txStore := &Store{tx: tx, dialect: s.dialect}
	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// insert 执行INSERT并返回自增主键
func (s *Store) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	ext := s.ext()
	if s.dialect.SupportsLastInsertID() {
		res, err := ext.ExecContext(ctx, ext.Rebind(query), args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
	var id int64
	row := ext.QueryRowxContext(ctx, ext.Rebind(query+" RETURNING id"), args...)
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// get 查询单行，未命中时返回storage.ErrNotFound
func (s *Store) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ext := s.ext()
	err := sqlx.GetContext(ctx, ext, dest, ext.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// selectAll 查询多行
func (s *Store) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ext := s.ext()
	return sqlx.SelectContext(ctx, ext, dest, ext.Rebind(query), args...)
}

// exec 执行语句并返回受影响行数
func (s *Store) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	ext := s.ext()
	res, err := ext.ExecContext(ctx, ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// count 统计行数
func (s *Store) count(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var total int64
	if err := s.get(ctx, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}

// ========== 流程定义 ==========

// CreateDefinition 创建流程定义
func (s *Store) CreateDefinition(ctx context.Context, def *types.Definition) (int64, error) {
	if def.CreateTime.IsZero() {
		def.CreateTime = time.Now()
	}
	return s.insert(ctx, `INSERT INTO workflow_definition
		(workflow_key, workflow_name, workflow_desc, category, version, status, form_id, icon, sort_order, create_by, create_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.WorkflowKey, def.WorkflowName, def.WorkflowDesc, def.Category, def.Version,
		def.Status, def.FormID, def.Icon, def.SortOrder, def.CreateBy, def.CreateTime)
}

// GetDefinition 按ID获取流程定义
func (s *Store) GetDefinition(ctx context.Context, id int64) (*types.Definition, error) {
	var def types.Definition
	if err := s.get(ctx, &def, `SELECT * FROM workflow_definition WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &def, nil
}

// UpdateDefinition 更新流程定义
func (s *Store) UpdateDefinition(ctx context.Context, def *types.Definition) error {
	now := time.Now()
	def.UpdateTime = &now
	_, err := s.exec(ctx, `UPDATE workflow_definition SET
		workflow_name = ?, workflow_desc = ?, category = ?, version = ?, status = ?,
		form_id = ?, icon = ?, sort_order = ?, update_by = ?, update_time = ?
		WHERE id = ?`,
		def.WorkflowName, def.WorkflowDesc, def.Category, def.Version, def.Status,
		def.FormID, def.Icon, def.SortOrder, def.UpdateBy, def.UpdateTime, def.ID)
	return err
}

// DeleteDefinition 删除流程定义
func (s *Store) DeleteDefinition(ctx context.Context, id int64) error {
	_, err := s.exec(ctx, `DELETE FROM workflow_definition WHERE id = ?`, id)
	return err
}

// ListDefinitions 分页查询流程定义
func (s *Store) ListDefinitions(ctx context.Context, filter storage.DefinitionFilter) ([]*types.Definition, int64, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.WorkflowName != "" {
		where += " AND workflow_name LIKE ?"
		args = append(args, "%"+filter.WorkflowName+"%")
	}
	if filter.Category != "" {
		where += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Status != nil {
		where += " AND status = ?"
		args = append(args, *filter.Status)
	}

	total, err := s.count(ctx, `SELECT COUNT(*) FROM workflow_definition`+where, args...)
	if err != nil {
		return nil, 0, err
	}

	var defs []*types.Definition
	query := `SELECT * FROM workflow_definition` + where + ` ORDER BY sort_order ASC, create_time DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	if err := s.selectAll(ctx, &defs, query, args...); err != nil {
		return nil, 0, err
	}
	return defs, total, nil
}

// ========== 流程图配置 ==========

// InsertNode 插入节点
func (s *Store) InsertNode(ctx context.Context, node *types.Node) (int64, error) {
	if node.CreateTime.IsZero() {
		node.CreateTime = time.Now()
	}
	return s.insert(ctx, `INSERT INTO workflow_node
		(workflow_id, node_key, node_name, node_type, position_x, position_y, config, create_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		node.WorkflowID, node.NodeKey, node.NodeName, node.NodeType,
		node.PositionX, node.PositionY, node.Config, node.CreateTime)
}

// GetNode 按ID获取节点
func (s *Store) GetNode(ctx context.Context, id int64) (*types.Node, error) {
	var node types.Node
	if err := s.get(ctx, &node, `SELECT * FROM workflow_node WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &node, nil
}

// ListNodes 获取流程的全部节点
func (s *Store) ListNodes(ctx context.Context, workflowID int64) ([]*types.Node, error) {
	var nodes []*types.Node
	err := s.selectAll(ctx, &nodes, `SELECT * FROM workflow_node WHERE workflow_id = ? ORDER BY id ASC`, workflowID)
	return nodes, err
}

// InsertEdge 插入连线
func (s *Store) InsertEdge(ctx context.Context, edge *types.Edge) (int64, error) {
	if edge.CreateTime.IsZero() {
		edge.CreateTime = time.Now()
	}
	return s.insert(ctx, `INSERT INTO workflow_edge
		(workflow_id, source_node_id, target_node_id, source_node_key, target_node_key, condition_expr, priority, create_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		edge.WorkflowID, edge.SourceNodeID, edge.TargetNodeID, edge.SourceNodeKey,
		edge.TargetNodeKey, edge.ConditionExpr, edge.Priority, edge.CreateTime)
}

// ListEdges 获取流程的全部连线
func (s *Store) ListEdges(ctx context.Context, workflowID int64) ([]*types.Edge, error) {
	var edges []*types.Edge
	err := s.selectAll(ctx, &edges, `SELECT * FROM workflow_edge WHERE workflow_id = ? ORDER BY priority ASC, id ASC`, workflowID)
	return edges, err
}

// InsertApproverConfig 插入审批人配置
func (s *Store) InsertApproverConfig(ctx context.Context, cfg *types.ApproverConfig) (int64, error) {
	if cfg.CreateTime.IsZero() {
		cfg.CreateTime = time.Now()
	}
	return s.insert(ctx, `INSERT INTO workflow_approver
		(node_id, approver_type, approver_value, approve_mode, nobody_handler, create_time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cfg.NodeID, cfg.ApproverType, cfg.ApproverValue, cfg.ApproveMode, cfg.NobodyHandler, cfg.CreateTime)
}

// ListApproverConfigs 获取节点的审批人配置，按ID升序
func (s *Store) ListApproverConfigs(ctx context.Context, nodeID int64) ([]*types.ApproverConfig, error) {
	var cfgs []*types.ApproverConfig
	err := s.selectAll(ctx, &cfgs, `SELECT * FROM workflow_approver WHERE node_id = ? ORDER BY id ASC`, nodeID)
	return cfgs, err
}

// ListApproverConfigsByWorkflow 获取流程全部节点的审批人配置
func (s *Store) ListApproverConfigsByWorkflow(ctx context.Context, workflowID int64) ([]*types.ApproverConfig, error) {
	var cfgs []*types.ApproverConfig
	err := s.selectAll(ctx, &cfgs, `SELECT a.* FROM workflow_approver a
		JOIN workflow_node n ON a.node_id = n.id
		WHERE n.workflow_id = ? ORDER BY a.id ASC`, workflowID)
	return cfgs, err
}

// DeleteFlowConfig 删除流程的全部节点、连线与审批人配置
func (s *Store) DeleteFlowConfig(ctx context.Context, workflowID int64) error {
	if _, err := s.exec(ctx, `DELETE FROM workflow_approver WHERE node_id IN
		(SELECT id FROM workflow_node WHERE workflow_id = ?)`, workflowID); err != nil {
		return err
	}
	if _, err := s.exec(ctx, `DELETE FROM workflow_edge WHERE workflow_id = ?`, workflowID); err != nil {
		return err
	}
	_, err := s.exec(ctx, `DELETE FROM workflow_node WHERE workflow_id = ?`, workflowID)
	return err
}

// ========== 表单 ==========

// CreateForm 创建表单
func (s *Store) CreateForm(ctx context.Context, form *types.FormDef) (int64, error) {
	if form.CreateTime.IsZero() {
		form.CreateTime = time.Now()
	}
	return s.insert(ctx, `INSERT INTO workflow_form
		(form_key, form_name, form_desc, form_config, status, create_time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		form.FormKey, form.FormName, form.FormDesc, form.FormConfig, form.Status, form.CreateTime)
}

// GetForm 按ID获取表单
func (s *Store) GetForm(ctx context.Context, id int64) (*types.FormDef, error) {
	var form types.FormDef
	if err := s.get(ctx, &form, `SELECT * FROM workflow_form WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &form, nil
}

// UpdateForm 更新表单
func (s *Store) UpdateForm(ctx context.Context, form *types.FormDef) error {
	now := time.Now()
	form.UpdateTime = &now
	_, err := s.exec(ctx, `UPDATE workflow_form SET
		form_name = ?, form_desc = ?, form_config = ?, status = ?, update_time = ?
		WHERE id = ?`,
		form.FormName, form.FormDesc, form.FormConfig, form.Status, form.UpdateTime, form.ID)
	return err
}

// ========== 流程实例 ==========

// CreateInstance 创建流程实例
func (s *Store) CreateInstance(ctx context.Context, inst *types.Instance) (int64, error) {
	if inst.StartTime.IsZero() {
		inst.StartTime = time.Now()
	}
	return s.insert(ctx, `INSERT INTO workflow_instance
		(instance_no, workflow_id, workflow_key, workflow_name, form_id, form_data, status,
		 current_node_id, start_user_id, start_user_name, title, priority, business_key, start_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.InstanceNo, inst.WorkflowID, inst.WorkflowKey, inst.WorkflowName, inst.FormID,
		inst.FormData, inst.Status, inst.CurrentNodeID, inst.StartUserID, inst.StartUserName,
		inst.Title, inst.Priority, inst.BusinessKey, inst.StartTime)
}

// GetInstance 按ID获取流程实例
func (s *Store) GetInstance(ctx context.Context, id int64) (*types.Instance, error) {
	var inst types.Instance
	if err := s.get(ctx, &inst, `SELECT * FROM workflow_instance WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &inst, nil
}

// GetInstanceForUpdate 加锁读取实例行
func (s *Store) GetInstanceForUpdate(ctx context.Context, id int64) (*types.Instance, error) {
	var inst types.Instance
	query := `SELECT * FROM workflow_instance WHERE id = ?` + s.dialect.ForUpdate()
	if err := s.get(ctx, &inst, query, id); err != nil {
		return nil, err
	}
	return &inst, nil
}

// UpdateInstance 更新流程实例
func (s *Store) UpdateInstance(ctx context.Context, inst *types.Instance) error {
	_, err := s.exec(ctx, `UPDATE workflow_instance SET
		status = ?, current_node_id = ?, form_data = ?, end_time = ?, duration_ms = ?
		WHERE id = ?`,
		inst.Status, inst.CurrentNodeID, inst.FormData, inst.EndTime, inst.DurationMs, inst.ID)
	return err
}

// ListInstances 分页查询流程实例
func (s *Store) ListInstances(ctx context.Context, filter storage.InstanceFilter) ([]*types.Instance, int64, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.StartUserID != "" {
		where += " AND start_user_id = ?"
		args = append(args, filter.StartUserID)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}

	total, err := s.count(ctx, `SELECT COUNT(*) FROM workflow_instance`+where, args...)
	if err != nil {
		return nil, 0, err
	}

	var insts []*types.Instance
	query := `SELECT * FROM workflow_instance` + where + ` ORDER BY start_time DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	if err := s.selectAll(ctx, &insts, query, args...); err != nil {
		return nil, 0, err
	}
	return insts, total, nil
}

// CountRunningInstances 统计流程定义下运行中的实例数
func (s *Store) CountRunningInstances(ctx context.Context, workflowID int64) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM workflow_instance WHERE workflow_id = ? AND status = ?`,
		workflowID, types.InstanceRunning)
}

// ========== 审批任务 ==========

// CreateTask 创建审批任务
func (s *Store) CreateTask(ctx context.Context, task *types.Task) (int64, error) {
	if task.CreateTime.IsZero() {
		task.CreateTime = time.Now()
	}
	return s.insert(ctx, `INSERT INTO workflow_task
		(instance_id, instance_no, node_id, node_key, node_name, node_type, assignee_id, assignee_name,
		 status, comment, attachments, priority, create_time, complete_time, due_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.InstanceID, task.InstanceNo, task.NodeID, task.NodeKey, task.NodeName, task.NodeType,
		task.AssigneeID, task.AssigneeName, task.Status, task.Comment, task.Attachments,
		task.Priority, task.CreateTime, task.CompleteTime, task.DueTime)
}

// GetTask 按ID获取任务
func (s *Store) GetTask(ctx context.Context, id int64) (*types.Task, error) {
	var task types.Task
	if err := s.get(ctx, &task, `SELECT * FROM workflow_task WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask 更新任务
func (s *Store) UpdateTask(ctx context.Context, task *types.Task) error {
	_, err := s.exec(ctx, `UPDATE workflow_task SET
		status = ?, comment = ?, attachments = ?, complete_time = ?
		WHERE id = ?`,
		task.Status, task.Comment, task.Attachments, task.CompleteTime, task.ID)
	return err
}

// ListTasksByInstance 获取实例的全部任务
func (s *Store) ListTasksByInstance(ctx context.Context, instanceID int64) ([]*types.Task, error) {
	var tasks []*types.Task
	err := s.selectAll(ctx, &tasks, `SELECT * FROM workflow_task WHERE instance_id = ? ORDER BY create_time ASC, id ASC`, instanceID)
	return tasks, err
}

// ListTasksAtNode 获取实例在某节点上的全部任务
func (s *Store) ListTasksAtNode(ctx context.Context, instanceID, nodeID int64) ([]*types.Task, error) {
	var tasks []*types.Task
	err := s.selectAll(ctx, &tasks, `SELECT * FROM workflow_task WHERE instance_id = ? AND node_id = ? ORDER BY id ASC`, instanceID, nodeID)
	return tasks, err
}

// CancelPendingTasks 取消实例的全部待办任务
func (s *Store) CancelPendingTasks(ctx context.Context, instanceID int64) (int64, error) {
	return s.exec(ctx, `UPDATE workflow_task SET status = ?, complete_time = ? WHERE instance_id = ? AND status = ?`,
		types.TaskCanceled, time.Now(), instanceID, types.TaskPending)
}

// ListPendingTasksByAssignee 分页查询用户的待办任务
func (s *Store) ListPendingTasksByAssignee(ctx context.Context, userID string, page storage.PageQuery) ([]*types.Task, int64, error) {
	total, err := s.count(ctx, `SELECT COUNT(*) FROM workflow_task WHERE assignee_id = ? AND status = ?`,
		userID, types.TaskPending)
	if err != nil {
		return nil, 0, err
	}
	var tasks []*types.Task
	err = s.selectAll(ctx, &tasks, `SELECT * FROM workflow_task WHERE assignee_id = ? AND status = ?
		ORDER BY create_time DESC LIMIT ? OFFSET ?`,
		userID, types.TaskPending, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// ListOverdueTasks 获取截止时间早于before的待办任务
func (s *Store) ListOverdueTasks(ctx context.Context, before time.Time) ([]*types.Task, error) {
	var tasks []*types.Task
	err := s.selectAll(ctx, &tasks, `SELECT * FROM workflow_task WHERE status = ? AND due_time IS NOT NULL AND due_time < ?`,
		types.TaskPending, before)
	return tasks, err
}

// ========== 抄送 ==========

// CreateCc 创建抄送记录
func (s *Store) CreateCc(ctx context.Context, cc *types.CcRecord) (int64, error) {
	if cc.CreateTime.IsZero() {
		cc.CreateTime = time.Now()
	}
	return s.insert(ctx, `INSERT INTO workflow_cc
		(instance_id, instance_no, node_id, node_name, cc_user_id, cc_user_name, status, create_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cc.InstanceID, cc.InstanceNo, cc.NodeID, cc.NodeName, cc.CcUserID, cc.CcUserName, cc.Status, cc.CreateTime)
}

// GetCc 按ID获取抄送记录
func (s *Store) GetCc(ctx context.Context, id int64) (*types.CcRecord, error) {
	var cc types.CcRecord
	if err := s.get(ctx, &cc, `SELECT * FROM workflow_cc WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &cc, nil
}

// UpdateCc 更新抄送记录
func (s *Store) UpdateCc(ctx context.Context, cc *types.CcRecord) error {
	_, err := s.exec(ctx, `UPDATE workflow_cc SET status = ?, read_time = ? WHERE id = ?`,
		cc.Status, cc.ReadTime, cc.ID)
	return err
}

// ListCcByUser 分页查询用户收到的抄送
func (s *Store) ListCcByUser(ctx context.Context, userID string, page storage.PageQuery) ([]*types.CcRecord, int64, error) {
	total, err := s.count(ctx, `SELECT COUNT(*) FROM workflow_cc WHERE cc_user_id = ?`, userID)
	if err != nil {
		return nil, 0, err
	}
	var ccs []*types.CcRecord
	err = s.selectAll(ctx, &ccs, `SELECT * FROM workflow_cc WHERE cc_user_id = ?
		ORDER BY create_time DESC LIMIT ? OFFSET ?`, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return ccs, total, nil
}

// ========== 审批历史 ==========

// CreateHistory 追加审批历史
func (s *Store) CreateHistory(ctx context.Context, entry *types.HistoryEntry) (int64, error) {
	if entry.OperateTime.IsZero() {
		entry.OperateTime = time.Now()
	}
	return s.insert(ctx, `INSERT INTO workflow_history
		(instance_id, task_id, node_id, node_name, action, operator_id, operator_name, comment, attachments, operate_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.InstanceID, entry.TaskID, entry.NodeID, entry.NodeName, entry.Action,
		entry.OperatorID, entry.OperatorName, entry.Comment, entry.Attachments, entry.OperateTime)
}

// ListHistory 获取实例的审批历史，按时间升序
func (s *Store) ListHistory(ctx context.Context, instanceID int64) ([]*types.HistoryEntry, error) {
	var entries []*types.HistoryEntry
	err := s.selectAll(ctx, &entries, `SELECT * FROM workflow_history WHERE instance_id = ? ORDER BY operate_time ASC, id ASC`, instanceID)
	return entries, err
}

// ========== 组织架构 ==========

// CreateUser 创建用户
func (s *Store) CreateUser(ctx context.Context, user *types.User) (int64, error) {
	return s.insert(ctx, `INSERT INTO sys_user (username, real_name, dept_id, status) VALUES (?, ?, ?, ?)`,
		user.Username, user.RealName, user.DeptID, user.Status)
}

// GetUser 按ID获取用户
func (s *Store) GetUser(ctx context.Context, id int64) (*types.User, error) {
	var user types.User
	if err := s.get(ctx, &user, `SELECT * FROM sys_user WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchUsers 按关键词搜索用户（用户名或姓名）
func (s *Store) SearchUsers(ctx context.Context, keyword string) ([]*types.User, error) {
	var users []*types.User
	kw := "%" + keyword + "%"
	err := s.selectAll(ctx, &users, `SELECT * FROM sys_user WHERE username LIKE ? OR real_name LIKE ? ORDER BY id ASC`, kw, kw)
	return users, err
}

// ListUsersByDept 获取部门的全部用户
func (s *Store) ListUsersByDept(ctx context.Context, deptID int64) ([]*types.User, error) {
	var users []*types.User
	err := s.selectAll(ctx, &users, `SELECT * FROM sys_user WHERE dept_id = ? ORDER BY id ASC`, deptID)
	return users, err
}

// ListUsersByRole 获取持有某角色的全部用户
func (s *Store) ListUsersByRole(ctx context.Context, roleCode string) ([]*types.User, error) {
	var users []*types.User
	err := s.selectAll(ctx, &users, `SELECT u.* FROM sys_user u
		JOIN sys_user_role ur ON u.id = ur.user_id
		JOIN sys_role r ON ur.role_id = r.id
		WHERE r.role_code = ? ORDER BY u.id ASC`, roleCode)
	return users, err
}

// CreateDept 创建部门
func (s *Store) CreateDept(ctx context.Context, dept *types.Dept) (int64, error) {
	return s.insert(ctx, `INSERT INTO sys_dept (dept_code, dept_name, leader_user_id, parent_id) VALUES (?, ?, ?, ?)`,
		dept.DeptCode, dept.DeptName, dept.LeaderUserID, dept.ParentID)
}

// GetDept 按ID获取部门
func (s *Store) GetDept(ctx context.Context, id int64) (*types.Dept, error) {
	var dept types.Dept
	if err := s.get(ctx, &dept, `SELECT * FROM sys_dept WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &dept, nil
}

// ListDepts 获取全部部门
func (s *Store) ListDepts(ctx context.Context) ([]*types.Dept, error) {
	var depts []*types.Dept
	err := s.selectAll(ctx, &depts, `SELECT * FROM sys_dept ORDER BY id ASC`)
	return depts, err
}

// CreateRole 创建角色
func (s *Store) CreateRole(ctx context.Context, role *types.Role) (int64, error) {
	return s.insert(ctx, `INSERT INTO sys_role (role_code, role_name) VALUES (?, ?)`,
		role.RoleCode, role.RoleName)
}

// ListRoles 获取全部角色
func (s *Store) ListRoles(ctx context.Context) ([]*types.Role, error) {
	var roles []*types.Role
	err := s.selectAll(ctx, &roles, `SELECT * FROM sys_role ORDER BY id ASC`)
	return roles, err
}

// AssignRole 给用户分配角色
func (s *Store) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := s.exec(ctx, `INSERT INTO sys_user_role (user_id, role_id) VALUES (?, ?)`, userID, roleID)
	return err
}

var _ storage.Store = (*Store)(nil)
