// Package types 定义审批流引擎的核心数据类型与枚举
package types

// NodeType 节点类型
type NodeType string

const (
	NodeStart     NodeType = "START"     // 开始节点
	NodeApprove   NodeType = "APPROVE"   // 审批节点
	NodeCc        NodeType = "CC"        // 抄送节点
	NodeCondition NodeType = "CONDITION" // 条件节点
	NodeEnd       NodeType = "END"       // 结束节点
)

// InstanceStatus 流程实例状态
type InstanceStatus string

const (
	InstanceRunning    InstanceStatus = "RUNNING"    // 运行中
	InstanceApproved   InstanceStatus = "APPROVED"   // 已通过
	InstanceRejected   InstanceStatus = "REJECTED"   // 已拒绝
	InstanceCanceled   InstanceStatus = "CANCELED"   // 已撤销
	InstanceTerminated InstanceStatus = "TERMINATED" // 已终止（保留值，当前没有产生该状态的流转）
)

// Terminal 判断实例状态是否为终态
func (s InstanceStatus) Terminal() bool {
	return s != InstanceRunning
}

// TaskStatus 审批任务状态
type TaskStatus string

const (
	TaskPending     TaskStatus = "PENDING"     // 待处理
	TaskApproved    TaskStatus = "APPROVED"    // 已同意
	TaskRejected    TaskStatus = "REJECTED"    // 已拒绝
	TaskTransferred TaskStatus = "TRANSFERRED" // 已转交
	TaskCanceled    TaskStatus = "CANCELED"    // 已取消
)

// Terminal 判断任务状态是否为终态
func (s TaskStatus) Terminal() bool {
	return s != TaskPending
}

// ApproveMode 审批方式
type ApproveMode string

const (
	ModeAnd      ApproveMode = "AND"      // 会签：节点上所有任务都同意才通过
	ModeOr       ApproveMode = "OR"       // 或签：任意一人同意即通过
	ModeSequence ApproveMode = "SEQUENCE" // 依次审批：当前任务同意即可推进
)

// ApproverType 审批人类型
type ApproverType string

const (
	ApproverUser     ApproverType = "USER"      // 指定用户，approverValue为 "userId:userName,..." 列表
	ApproverRole     ApproverType = "ROLE"      // 指定角色，approverValue为角色编码
	ApproverDept     ApproverType = "DEPT"      // 指定部门，approverValue为部门ID
	ApproverLeader   ApproverType = "LEADER"    // 发起人的部门负责人
	ApproverSelf     ApproverType = "SELF"      // 发起人本人
	ApproverFormUser ApproverType = "FORM_USER" // 表单字段用户，approverValue为 "idField,nameField"
)

// NobodyHandler 无审批人处理策略
type NobodyHandler string

const (
	NobodyAutoPass NobodyHandler = "AUTO_PASS" // 自动通过
	NobodyAdmin    NobodyHandler = "ADMIN"     // 转交管理员
)

// HistoryAction 审批历史动作
type HistoryAction string

const (
	ActionStart    HistoryAction = "START"    // 发起流程
	ActionApprove  HistoryAction = "APPROVE"  // 同意
	ActionReject   HistoryAction = "REJECT"   // 拒绝
	ActionTransfer HistoryAction = "TRANSFER" // 转交
	ActionCancel   HistoryAction = "CANCEL"   // 撤销
)

// 定义状态（workflow_definition.status）
const (
	DefinitionDraft     = 0 // 草稿（未发布）
	DefinitionPublished = 1 // 已发布
	DefinitionDisabled  = 2 // 已停用
)

// 抄送已读状态（workflow_cc.status）
const (
	CcUnread = 0 // 未读
	CcRead   = 1 // 已读
)
