package dto

// PageRequest 通用分页查询请求
type PageRequest struct {
	PageNum  int `form:"page_num" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPageNum 获取页码默认值
func (r *PageRequest) GetPageNum() int {
	if r.PageNum <= 0 {
		return 1
	}
	return r.PageNum
}

// GetPageSize 获取每页条数默认值
func (r *PageRequest) GetPageSize() int {
	if r.PageSize <= 0 {
		return 10
	}
	return r.PageSize
}

// SaveDefinitionRequest 创建/更新流程定义请求
type SaveDefinitionRequest struct {
	WorkflowKey  string `json:"workflow_key" binding:"required"`
	WorkflowName string `json:"workflow_name" binding:"required"`
	WorkflowDesc string `json:"workflow_desc"`
	Category     string `json:"category"`
	FormID       *int64 `json:"form_id"`
	Icon         string `json:"icon"`
	SortOrder    int    `json:"sort_order"`
}

// DefinitionQueryRequest 流程定义列表查询请求
type DefinitionQueryRequest struct {
	PageRequest
	WorkflowName string `form:"workflow_name"`
	Category     string `form:"category"`
	Status       *int   `form:"status" binding:"omitempty,oneof=0 1 2"`
}

// FlowNodeRequest 流程节点配置
type FlowNodeRequest struct {
	NodeKey   string                  `json:"node_key" binding:"required"`
	NodeName  string                  `json:"node_name" binding:"required"`
	NodeType  string                  `json:"node_type" binding:"required,oneof=START APPROVE CC CONDITION END"`
	PositionX int                     `json:"position_x"`
	PositionY int                     `json:"position_y"`
	Config    string                  `json:"config"`
	Approvers []ApproverConfigRequest `json:"approvers"`
}

// FlowEdgeRequest 流程连线配置
type FlowEdgeRequest struct {
	SourceNodeKey string `json:"source_node_key" binding:"required"`
	TargetNodeKey string `json:"target_node_key" binding:"required"`
	ConditionExpr string `json:"condition_expr"`
	Priority      int    `json:"priority"`
}

// ApproverConfigRequest 审批人配置
type ApproverConfigRequest struct {
	ApproverType  string `json:"approver_type" binding:"required,oneof=USER ROLE DEPT LEADER SELF FORM_USER"`
	ApproverValue string `json:"approver_value"`
	ApproveMode   string `json:"approve_mode" binding:"omitempty,oneof=AND OR SEQUENCE"`
	NobodyHandler string `json:"nobody_handler" binding:"omitempty,oneof=AUTO_PASS ADMIN"`
}

// SaveFlowConfigRequest 保存流程图配置请求
// form 可选，带上时随流程图一起保存并挂到定义上
type SaveFlowConfigRequest struct {
	Nodes []FlowNodeRequest `json:"nodes" binding:"required,min=2"`
	Edges []FlowEdgeRequest `json:"edges" binding:"required,min=1"`
	Form  *SaveFormRequest  `json:"form"`
}

// StartInstanceRequest 发起流程请求
type StartInstanceRequest struct {
	WorkflowID  int64                  `json:"workflow_id" binding:"required"`
	Title       string                 `json:"title" binding:"required"`
	FormData    map[string]interface{} `json:"form_data"`
	Priority    int                    `json:"priority"`
	BusinessKey string                 `json:"business_key"`
}

// InstanceQueryRequest 实例列表查询请求
type InstanceQueryRequest struct {
	PageRequest
	StartUserID string `form:"start_user_id"`
	Status      string `form:"status" binding:"omitempty,oneof=RUNNING APPROVED REJECTED CANCELED TERMINATED"`
}

// DecideRequest 审批决定请求
type DecideRequest struct {
	Comment     string `json:"comment"`
	Attachments string `json:"attachments"`
}

// TransferRequest 转交请求
type TransferRequest struct {
	TargetUserID   string `json:"target_user_id" binding:"required"`
	TargetUserName string `json:"target_user_name"`
	Comment        string `json:"comment"`
}

// CancelInstanceRequest 撤销流程请求
type CancelInstanceRequest struct {
	Reason string `json:"reason"`
}

// SaveFormRequest 创建/更新表单请求
type SaveFormRequest struct {
	FormKey    string `json:"form_key" binding:"required"`
	FormName   string `json:"form_name" binding:"required"`
	FormDesc   string `json:"form_desc"`
	FormConfig string `json:"form_config"`
	Status     int    `json:"status"`
}
