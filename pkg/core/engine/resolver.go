package engine

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/oaflow/oaflow/pkg/core/types"
	"github.com/oaflow/oaflow/pkg/storage"
)

// ResolveContext 审批人解析上下文
type ResolveContext struct {
	StartUserID   string
	StartUserName string
	FormData      map[string]interface{}
}

// Resolver 把审批人配置解析成具体用户列表
// 单条配置解析失败只记录日志并跳过，全部解析完成后按用户ID去重
type Resolver struct {
	store storage.Store
}

// NewResolver 创建审批人解析器
func NewResolver(store storage.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve 解析节点的全部审批人配置
func (r *Resolver) Resolve(ctx context.Context, cfgs []*types.ApproverConfig, rc ResolveContext) ([]types.Assignee, error) {
	var all []types.Assignee
	for _, cfg := range cfgs {
		assignees, err := r.resolveOne(ctx, cfg, rc)
		if err != nil {
			log.Printf("[resolver] 解析审批人配置失败 nodeId=%d type=%s value=%q: %v",
				cfg.NodeID, cfg.ApproverType, cfg.ApproverValue, err)
			continue
		}
		all = append(all, assignees...)
	}
	return dedupeAssignees(all), nil
}

func (r *Resolver) resolveOne(ctx context.Context, cfg *types.ApproverConfig, rc ResolveContext) ([]types.Assignee, error) {
	switch cfg.ApproverType {
	case types.ApproverUser:
		return parseUserList(cfg.ApproverValue), nil
	case types.ApproverRole:
		return r.resolveRole(ctx, cfg.ApproverValue)
	case types.ApproverDept:
		return r.resolveDept(ctx, cfg.ApproverValue)
	case types.ApproverLeader:
		return r.resolveLeader(ctx, rc.StartUserID)
	case types.ApproverSelf:
		return []types.Assignee{{UserID: rc.StartUserID, UserName: rc.StartUserName}}, nil
	case types.ApproverFormUser:
		return resolveFormUser(cfg.ApproverValue, rc.FormData)
	default:
		return nil, fmt.Errorf("未知的审批人类型: %s", cfg.ApproverType)
	}
}

// parseUserList 解析 "userId:userName,userId:userName" 形式的用户列表
// 没有冒号时整段作为用户ID
func parseUserList(value string) []types.Assignee {
	var assignees []types.Assignee
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, name, found := strings.Cut(part, ":")
		if !found {
			name = id
		}
		assignees = append(assignees, types.Assignee{UserID: id, UserName: name})
	}
	return assignees
}

func (r *Resolver) resolveRole(ctx context.Context, roleCode string) ([]types.Assignee, error) {
	users, err := r.store.ListUsersByRole(ctx, strings.TrimSpace(roleCode))
	if err != nil {
		return nil, err
	}
	return usersToAssignees(users), nil
}

func (r *Resolver) resolveDept(ctx context.Context, deptValue string) ([]types.Assignee, error) {
	deptID, err := strconv.ParseInt(strings.TrimSpace(deptValue), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("部门ID无效: %q", deptValue)
	}
	users, err := r.store.ListUsersByDept(ctx, deptID)
	if err != nil {
		return nil, err
	}
	return usersToAssignees(users), nil
}

// resolveLeader 解析发起人的部门负责人
func (r *Resolver) resolveLeader(ctx context.Context, startUserID string) ([]types.Assignee, error) {
	uid, err := strconv.ParseInt(startUserID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("发起人ID无效: %q", startUserID)
	}
	user, err := r.store.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("查询发起人失败: %w", err)
	}
	if user.DeptID == nil {
		return nil, fmt.Errorf("发起人 %s 未分配部门", startUserID)
	}
	dept, err := r.store.GetDept(ctx, *user.DeptID)
	if err != nil {
		return nil, fmt.Errorf("查询部门失败: %w", err)
	}
	if dept.LeaderUserID == nil {
		return nil, fmt.Errorf("部门 %s 未设置负责人", dept.DeptName)
	}
	leader, err := r.store.GetUser(ctx, *dept.LeaderUserID)
	if err != nil {
		return nil, fmt.Errorf("查询部门负责人失败: %w", err)
	}
	return []types.Assignee{{UserID: strconv.FormatInt(leader.ID, 10), UserName: leader.RealName}}, nil
}

// resolveFormUser 从表单字段取审批人，value为 "idField,nameField"（nameField可省略）
func resolveFormUser(value string, formData map[string]interface{}) ([]types.Assignee, error) {
	idField, nameField, _ := strings.Cut(strings.TrimSpace(value), ",")
	if idField == "" {
		return nil, fmt.Errorf("表单审批人配置为空")
	}
	rawID, ok := formData[idField]
	if !ok {
		return nil, fmt.Errorf("表单缺少字段 %q", idField)
	}
	userID := toString(rawID)
	if userID == "" {
		return nil, fmt.Errorf("表单字段 %q 值为空", idField)
	}
	userName := userID
	if nameField != "" {
		if rawName, ok := formData[strings.TrimSpace(nameField)]; ok {
			if n := toString(rawName); n != "" {
				userName = n
			}
		}
	}
	return []types.Assignee{{UserID: userID, UserName: userName}}, nil
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func usersToAssignees(users []*types.User) []types.Assignee {
	assignees := make([]types.Assignee, 0, len(users))
	for _, u := range users {
		assignees = append(assignees, types.Assignee{
			UserID:   strconv.FormatInt(u.ID, 10),
			UserName: u.RealName,
		})
	}
	return assignees
}

// dedupeAssignees 按用户ID去重，保持首次出现的顺序
func dedupeAssignees(assignees []types.Assignee) []types.Assignee {
	seen := make(map[string]struct{}, len(assignees))
	out := assignees[:0]
	for _, a := range assignees {
		if _, ok := seen[a.UserID]; ok {
			continue
		}
		seen[a.UserID] = struct{}{}
		out = append(out, a)
	}
	return out
}
