package types

import "time"

// Definition 流程定义（版本化的流程图模板）
type Definition struct {
	ID           int64      `db:"id" json:"id"`
	WorkflowKey  string     `db:"workflow_key" json:"workflow_key"`
	WorkflowName string     `db:"workflow_name" json:"workflow_name"`
	WorkflowDesc string     `db:"workflow_desc" json:"workflow_desc,omitempty"`
	Category     string     `db:"category" json:"category,omitempty"`
	Version      int        `db:"version" json:"version"`
	Status       int        `db:"status" json:"status"`
	FormID       *int64     `db:"form_id" json:"form_id,omitempty"`
	Icon         string     `db:"icon" json:"icon,omitempty"`
	SortOrder    int        `db:"sort_order" json:"sort_order"`
	CreateBy     string     `db:"create_by" json:"create_by,omitempty"`
	CreateTime   time.Time  `db:"create_time" json:"create_time"`
	UpdateBy     string     `db:"update_by" json:"update_by,omitempty"`
	UpdateTime   *time.Time `db:"update_time" json:"update_time,omitempty"`
}

// Node 流程节点
type Node struct {
	ID         int64     `db:"id" json:"id"`
	WorkflowID int64     `db:"workflow_id" json:"workflow_id"`
	NodeKey    string    `db:"node_key" json:"node_key"`
	NodeName   string    `db:"node_name" json:"node_name"`
	NodeType   NodeType  `db:"node_type" json:"node_type"`
	PositionX  int       `db:"position_x" json:"position_x"`
	PositionY  int       `db:"position_y" json:"position_y"`
	Config     string    `db:"config" json:"config,omitempty"` // 节点扩展配置，JSON
	CreateTime time.Time `db:"create_time" json:"create_time"`
}

// Edge 节点连线（带优先级与可选条件表达式）
type Edge struct {
	ID            int64     `db:"id" json:"id"`
	WorkflowID    int64     `db:"workflow_id" json:"workflow_id"`
	SourceNodeID  int64     `db:"source_node_id" json:"source_node_id"`
	TargetNodeID  int64     `db:"target_node_id" json:"target_node_id"`
	SourceNodeKey string    `db:"source_node_key" json:"source_node_key,omitempty"`
	TargetNodeKey string    `db:"target_node_key" json:"target_node_key,omitempty"`
	ConditionExpr string    `db:"condition_expr" json:"condition_expr,omitempty"`
	Priority      int       `db:"priority" json:"priority"`
	CreateTime    time.Time `db:"create_time" json:"create_time"`
}

// ApproverConfig 审批人配置，一个节点可以有多组
type ApproverConfig struct {
	ID            int64         `db:"id" json:"id"`
	NodeID        int64         `db:"node_id" json:"node_id"`
	ApproverType  ApproverType  `db:"approver_type" json:"approver_type"`
	ApproverValue string        `db:"approver_value" json:"approver_value"`
	ApproveMode   ApproveMode   `db:"approve_mode" json:"approve_mode"`
	NobodyHandler NobodyHandler `db:"nobody_handler" json:"nobody_handler,omitempty"`
	CreateTime    time.Time     `db:"create_time" json:"create_time"`
}

// Instance 流程实例
type Instance struct {
	ID            int64          `db:"id" json:"id"`
	InstanceNo    string         `db:"instance_no" json:"instance_no"`
	WorkflowID    int64          `db:"workflow_id" json:"workflow_id"`
	WorkflowKey   string         `db:"workflow_key" json:"workflow_key"`
	WorkflowName  string         `db:"workflow_name" json:"workflow_name"`
	FormID        *int64         `db:"form_id" json:"form_id,omitempty"`
	FormData      string         `db:"form_data" json:"form_data,omitempty"` // 表单数据，JSON
	Status        InstanceStatus `db:"status" json:"status"`
	CurrentNodeID int64          `db:"current_node_id" json:"current_node_id"`
	StartUserID   string         `db:"start_user_id" json:"start_user_id"`
	StartUserName string         `db:"start_user_name" json:"start_user_name"`
	Title         string         `db:"title" json:"title"`
	Priority      int            `db:"priority" json:"priority"`
	BusinessKey   string         `db:"business_key" json:"business_key,omitempty"`
	StartTime     time.Time      `db:"start_time" json:"start_time"`
	EndTime       *time.Time     `db:"end_time" json:"end_time,omitempty"`
	DurationMs    *int64         `db:"duration_ms" json:"duration_ms,omitempty"`
}

// Task 审批任务（某个审批节点上某个审批人的待办）
type Task struct {
	ID           int64      `db:"id" json:"id"`
	InstanceID   int64      `db:"instance_id" json:"instance_id"`
	InstanceNo   string     `db:"instance_no" json:"instance_no"`
	NodeID       int64      `db:"node_id" json:"node_id"`
	NodeKey      string     `db:"node_key" json:"node_key"`
	NodeName     string     `db:"node_name" json:"node_name"`
	NodeType     NodeType   `db:"node_type" json:"node_type"`
	AssigneeID   string     `db:"assignee_id" json:"assignee_id"`
	AssigneeName string     `db:"assignee_name" json:"assignee_name"`
	Status       TaskStatus `db:"status" json:"status"`
	Comment      string     `db:"comment" json:"comment,omitempty"`
	Attachments  string     `db:"attachments" json:"attachments,omitempty"`
	Priority     int        `db:"priority" json:"priority"`
	CreateTime   time.Time  `db:"create_time" json:"create_time"`
	CompleteTime *time.Time `db:"complete_time" json:"complete_time,omitempty"`
	DueTime      *time.Time `db:"due_time" json:"due_time,omitempty"`
}

// CcRecord 抄送记录，不阻塞流程
type CcRecord struct {
	ID         int64      `db:"id" json:"id"`
	InstanceID int64      `db:"instance_id" json:"instance_id"`
	InstanceNo string     `db:"instance_no" json:"instance_no"`
	NodeID     int64      `db:"node_id" json:"node_id"`
	NodeName   string     `db:"node_name" json:"node_name"`
	CcUserID   string     `db:"cc_user_id" json:"cc_user_id"`
	CcUserName string     `db:"cc_user_name" json:"cc_user_name"`
	Status     int        `db:"status" json:"status"`
	ReadTime   *time.Time `db:"read_time" json:"read_time,omitempty"`
	CreateTime time.Time  `db:"create_time" json:"create_time"`
}

// HistoryEntry 审批历史，只追加不修改
type HistoryEntry struct {
	ID           int64         `db:"id" json:"id"`
	InstanceID   int64         `db:"instance_id" json:"instance_id"`
	TaskID       *int64        `db:"task_id" json:"task_id,omitempty"`
	NodeID       int64         `db:"node_id" json:"node_id"`
	NodeName     string        `db:"node_name" json:"node_name"`
	Action       HistoryAction `db:"action" json:"action"`
	OperatorID   string        `db:"operator_id" json:"operator_id"`
	OperatorName string        `db:"operator_name" json:"operator_name"`
	Comment      string        `db:"comment" json:"comment,omitempty"`
	Attachments  string        `db:"attachments" json:"attachments,omitempty"`
	OperateTime  time.Time     `db:"operate_time" json:"operate_time"`
}

// FormDef 流程表单定义
type FormDef struct {
	ID         int64      `db:"id" json:"id"`
	FormKey    string     `db:"form_key" json:"form_key"`
	FormName   string     `db:"form_name" json:"form_name"`
	FormDesc   string     `db:"form_desc" json:"form_desc,omitempty"`
	FormConfig string     `db:"form_config" json:"form_config,omitempty"` // 表单结构，JSON
	Status     int        `db:"status" json:"status"`
	CreateTime time.Time  `db:"create_time" json:"create_time"`
	UpdateTime *time.Time `db:"update_time" json:"update_time,omitempty"`
}

// User 组织用户
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	RealName string `db:"real_name" json:"real_name"`
	DeptID   *int64 `db:"dept_id" json:"dept_id,omitempty"`
	Status   int    `db:"status" json:"status"`
}

// Dept 组织部门
type Dept struct {
	ID           int64  `db:"id" json:"id"`
	DeptCode     string `db:"dept_code" json:"dept_code"`
	DeptName     string `db:"dept_name" json:"dept_name"`
	LeaderUserID *int64 `db:"leader_user_id" json:"leader_user_id,omitempty"`
	ParentID     *int64 `db:"parent_id" json:"parent_id,omitempty"`
}

// Role 组织角色
type Role struct {
	ID       int64  `db:"id" json:"id"`
	RoleCode string `db:"role_code" json:"role_code"`
	RoleName string `db:"role_name" json:"role_name"`
}

// Assignee 解析后的具体审批人/抄送人
type Assignee struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}
