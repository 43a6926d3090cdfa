package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaflow/oaflow/pkg/api/dto"
	"github.com/oaflow/oaflow/pkg/core/engine"
	"github.com/oaflow/oaflow/pkg/core/types"
	"github.com/oaflow/oaflow/pkg/storage"
	"github.com/oaflow/oaflow/pkg/storage/sqlite"
)

// setupAPI 建起一套走临时sqlite库的完整路由
func setupAPI(t *testing.T) (*gin.Engine, *engine.DefinitionService, storage.Store) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	eng := engine.NewEngine(store)
	defs := engine.NewDefinitionService(store, nil)
	router := SetupRouter(Deps{
		Engine:      eng,
		Definitions: defs,
		Store:       store,
		Version:     "test",
	})
	return router, defs, store
}

func doJSON(router *gin.Engine, method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// publishLeaveFlow 经HTTP接口创建并发布一条最小流程，返回定义ID
func publishLeaveFlow(t *testing.T, router *gin.Engine) int64 {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/v1/definitions", dto.SaveDefinitionRequest{
		WorkflowKey:  "leave",
		WorkflowName: "请假审批",
	}, "100")
	require.Equal(t, http.StatusOK, w.Code)
	var created dto.APIResponse[types.Definition]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Data.ID
	require.Positive(t, id)

	w = doJSON(router, http.MethodPut, fmt.Sprintf("/api/v1/definitions/%d/flow", id), dto.SaveFlowConfigRequest{
		Nodes: []dto.FlowNodeRequest{
			{NodeKey: "start", NodeName: "开始", NodeType: "START"},
			{NodeKey: "approve", NodeName: "审批", NodeType: "APPROVE", Approvers: []dto.ApproverConfigRequest{
				{ApproverType: "USER", ApproverValue: "1:甲", ApproveMode: "OR"},
			}},
			{NodeKey: "end", NodeName: "结束", NodeType: "END"},
		},
		Edges: []dto.FlowEdgeRequest{
			{SourceNodeKey: "start", TargetNodeKey: "approve", Priority: 1},
			{SourceNodeKey: "approve", TargetNodeKey: "end", Priority: 1},
		},
	}, "100")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/definitions/%d/publish", id), nil, "100")
	require.Equal(t, http.StatusOK, w.Code)
	return id
}

func TestAPI_Health(t *testing.T) {
	router, _, _ := setupAPI(t)

	w := doJSON(router, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_StartAndApprove(t *testing.T) {
	router, _, _ := setupAPI(t)
	wfID := publishLeaveFlow(t, router)

	w := doJSON(router, http.MethodPost, "/api/v1/instances", dto.StartInstanceRequest{
		WorkflowID: wfID,
		Title:      "张三的请假申请",
		FormData:   map[string]interface{}{"days": 2},
	}, "100")
	require.Equal(t, http.StatusOK, w.Code)
	var started dto.APIResponse[dto.StartInstanceResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	assert.Zero(t, started.Code)
	assert.Equal(t, "RUNNING", started.Data.Status)
	assert.NotEmpty(t, started.Data.InstanceNo)

	// 审批人的待办列表
	w = doJSON(router, http.MethodGet, "/api/v1/tasks/pending", nil, "1")
	require.Equal(t, http.StatusOK, w.Code)
	var pending dto.APIResponse[dto.PageResponse[*types.Task]]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	require.Len(t, pending.Data.Items, 1)
	taskID := pending.Data.Items[0].ID

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/approve", taskID),
		map[string]string{"comment": "同意"}, "1")
	require.Equal(t, http.StatusOK, w.Code)

	// 实例详情显示已通过
	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/v1/instances/%d", started.Data.InstanceID), nil, "100")
	require.Equal(t, http.StatusOK, w.Code)
	var detail dto.APIResponse[engine.InstanceDetail]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, types.InstanceApproved, detail.Data.Instance.Status)
}

func TestAPI_ErrorStatusMapping(t *testing.T) {
	router, _, _ := setupAPI(t)
	wfID := publishLeaveFlow(t, router)

	// 404: 实例不存在
	w := doJSON(router, http.MethodGet, "/api/v1/instances/9999", nil, "100")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 400: 请求体缺必填字段
	w = doJSON(router, http.MethodPost, "/api/v1/instances", map[string]interface{}{"title": "没有流程ID"}, "100")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 401: 缺少用户身份
	w = doJSON(router, http.MethodPost, "/api/v1/instances", dto.StartInstanceRequest{
		WorkflowID: wfID,
		Title:      "匿名发起",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 发起一单用于后续状态类错误
	w = doJSON(router, http.MethodPost, "/api/v1/instances", dto.StartInstanceRequest{
		WorkflowID: wfID,
		Title:      "张三的请假申请",
	}, "100")
	require.Equal(t, http.StatusOK, w.Code)
	var started dto.APIResponse[dto.StartInstanceResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))

	// 403: 非发起人撤销
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/instances/%d/cancel", started.Data.InstanceID),
		map[string]string{"reason": "不是我的单"}, "999")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 409: 重复撤销
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/instances/%d/cancel", started.Data.InstanceID),
		map[string]string{"reason": "撤回"}, "100")
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/instances/%d/cancel", started.Data.InstanceID),
		map[string]string{"reason": "再撤"}, "100")
	assert.Equal(t, http.StatusConflict, w.Code)

	// 响应体里的code与HTTP状态一致
	var resp dto.APIResponse[any]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 409, resp.Code)
}

func TestAPI_PublishInvalidFlowReturns422(t *testing.T) {
	router, _, _ := setupAPI(t)

	w := doJSON(router, http.MethodPost, "/api/v1/definitions", dto.SaveDefinitionRequest{
		WorkflowKey:  "broken",
		WorkflowName: "坏流程",
	}, "100")
	require.Equal(t, http.StatusOK, w.Code)
	var created dto.APIResponse[types.Definition]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Data.ID

	// 审批节点没配审批人
	w = doJSON(router, http.MethodPut, fmt.Sprintf("/api/v1/definitions/%d/flow", id), dto.SaveFlowConfigRequest{
		Nodes: []dto.FlowNodeRequest{
			{NodeKey: "start", NodeName: "开始", NodeType: "START"},
			{NodeKey: "approve", NodeName: "审批", NodeType: "APPROVE"},
			{NodeKey: "end", NodeName: "结束", NodeType: "END"},
		},
		Edges: []dto.FlowEdgeRequest{
			{SourceNodeKey: "start", TargetNodeKey: "approve", Priority: 1},
			{SourceNodeKey: "approve", TargetNodeKey: "end", Priority: 1},
		},
	}, "100")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/definitions/%d/publish", id), nil, "100")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAPI_InstanceProjections(t *testing.T) {
	router, _, _ := setupAPI(t)
	wfID := publishLeaveFlow(t, router)

	w := doJSON(router, http.MethodPost, "/api/v1/instances", dto.StartInstanceRequest{
		WorkflowID: wfID,
		Title:      "张三的请假申请",
		FormData:   map[string]interface{}{"days": 3},
	}, "100")
	require.Equal(t, http.StatusOK, w.Code)
	var started dto.APIResponse[dto.StartInstanceResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	instID := started.Data.InstanceID

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/v1/instances/%d/info", instID), nil, "100")
	require.Equal(t, http.StatusOK, w.Code)
	var info dto.APIResponse[engine.InstanceInfo]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "审批", info.Data.CurrentNodeName)

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/v1/instances/%d/form", instID), nil, "100")
	require.Equal(t, http.StatusOK, w.Code)
	var form dto.APIResponse[engine.InstanceForm]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &form))
	assert.Equal(t, float64(3), form.Data.FormData["days"])

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/v1/instances/%d/graph", instID), nil, "100")
	require.Equal(t, http.StatusOK, w.Code)
	var graph dto.APIResponse[engine.InstanceGraph]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &graph))
	assert.Len(t, graph.Data.Nodes, 3)
	assert.Len(t, graph.Data.Edges, 2)
	assert.Positive(t, graph.Data.CurrentNodeID)
	assert.Empty(t, graph.Data.CompletedNodeIDs)

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/v1/instances/%d/tasks", instID), nil, "100")
	require.Equal(t, http.StatusOK, w.Code)
	var tasks dto.APIResponse[[]*types.Task]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks.Data, 1)
	assert.Equal(t, "1", tasks.Data[0].AssigneeID)

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/v1/instances/%d/history", instID), nil, "100")
	require.Equal(t, http.StatusOK, w.Code)
	var history dto.APIResponse[[]*types.HistoryEntry]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.NotEmpty(t, history.Data)
	assert.Equal(t, types.ActionStart, history.Data[0].Action)

	// 不存在的实例一律404
	w = doJSON(router, http.MethodGet, "/api/v1/instances/9999/graph", nil, "100")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_ListDeptUsers(t *testing.T) {
	router, _, store := setupAPI(t)
	ctx := context.Background()

	deptID, err := store.CreateDept(ctx, &types.Dept{DeptCode: "tech", DeptName: "技术部"})
	require.NoError(t, err)
	otherID, err := store.CreateDept(ctx, &types.Dept{DeptCode: "hr", DeptName: "人事部"})
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, &types.User{Username: "zhangsan", RealName: "张三", DeptID: &deptID, Status: 1})
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, &types.User{Username: "lisi", RealName: "李四", DeptID: &otherID, Status: 1})
	require.NoError(t, err)

	w := doJSON(router, http.MethodGet, fmt.Sprintf("/api/v1/org/depts/%d/users", deptID), nil, "100")
	require.Equal(t, http.StatusOK, w.Code)
	var users dto.APIResponse[[]*types.User]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users.Data, 1)
	assert.Equal(t, "张三", users.Data[0].RealName)
}
