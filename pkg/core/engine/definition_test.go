package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaflow/oaflow/pkg/core/types"
)

func TestDefinitionService_PublishInvalidFlow(t *testing.T) {
	store := newTestStore(t)
	defs := NewDefinitionService(store, nil)
	ctx := context.Background()

	def, err := defs.CreateDefinition(ctx, &types.Definition{WorkflowKey: "broken", WorkflowName: "坏流程"})
	require.NoError(t, err)

	// 审批节点没有审批人配置，发布校验应当失败
	input := simpleFlow(types.ModeOr, "1:甲")
	input.Approvers = nil
	require.NoError(t, defs.SaveFlowConfig(ctx, def.ID, input))

	err = defs.Publish(ctx, def.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigFault))

	got, err := defs.GetDefinition(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, types.DefinitionDraft, got.Status)
}

func TestDefinitionService_SaveConfigRevertsToDraft(t *testing.T) {
	store := newTestStore(t)
	defs := NewDefinitionService(store, nil)
	ctx := context.Background()
	wfID := publishFlow(t, store, simpleFlow(types.ModeOr, "1:甲"))

	got, err := defs.GetDefinition(ctx, wfID)
	require.NoError(t, err)
	require.Equal(t, types.DefinitionPublished, got.Status)
	oldVersion := got.Version

	// 已发布的流程改了配置要重新发布，版本号加一
	require.NoError(t, defs.SaveFlowConfig(ctx, wfID, simpleFlow(types.ModeAnd, "1:甲,2:乙")))
	got, err = defs.GetDefinition(ctx, wfID)
	require.NoError(t, err)
	assert.Equal(t, types.DefinitionDraft, got.Status)
	assert.Equal(t, oldVersion+1, got.Version)
}

// 表单随流程图同事务保存：首次新建并挂到定义上，再次保存是更新而不是重复新建
func TestDefinitionService_SaveConfigWithForm(t *testing.T) {
	store := newTestStore(t)
	defs := NewDefinitionService(store, nil)
	ctx := context.Background()

	def, err := defs.CreateDefinition(ctx, &types.Definition{WorkflowKey: "leave", WorkflowName: "请假审批"})
	require.NoError(t, err)
	require.Nil(t, def.FormID)

	input := simpleFlow(types.ModeOr, "1:甲")
	input.Form = &types.FormDef{
		FormKey:    "leave_form",
		FormName:   "请假单",
		FormConfig: `{"fields":[{"key":"days","type":"number"}]}`,
	}
	require.NoError(t, defs.SaveFlowConfig(ctx, def.ID, input))

	got, err := defs.GetDefinition(ctx, def.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FormID)

	form, err := store.GetForm(ctx, *got.FormID)
	require.NoError(t, err)
	assert.Equal(t, "请假单", form.FormName)
	assert.Contains(t, form.FormConfig, `"days"`)

	// 再次保存时更新已有表单，定义上的form_id不变
	input2 := simpleFlow(types.ModeOr, "1:甲")
	input2.Form = &types.FormDef{
		FormKey:    "leave_form",
		FormName:   "请假单V2",
		FormConfig: `{"fields":[{"key":"days","type":"number"},{"key":"reason","type":"text"}]}`,
	}
	require.NoError(t, defs.SaveFlowConfig(ctx, def.ID, input2))

	got2, err := defs.GetDefinition(ctx, def.ID)
	require.NoError(t, err)
	require.NotNil(t, got2.FormID)
	assert.Equal(t, *got.FormID, *got2.FormID)

	form, err = store.GetForm(ctx, *got2.FormID)
	require.NoError(t, err)
	assert.Equal(t, "请假单V2", form.FormName)
	assert.NotNil(t, form.UpdateTime)
}

func TestDefinitionService_Disable(t *testing.T) {
	store := newTestStore(t)
	defs := NewDefinitionService(store, nil)
	eng := NewEngine(store)
	ctx := context.Background()
	wfID := publishFlow(t, store, simpleFlow(types.ModeOr, "1:甲"))

	require.NoError(t, defs.Disable(ctx, wfID))

	// 停用后不能再发起新实例
	_, err := eng.StartInstance(ctx, StartRequest{WorkflowID: wfID, Title: "x", StartUserID: "100"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))

	// 已停用的不能重复停用
	err = defs.Disable(ctx, wfID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestDefinitionService_DeleteWithRunningInstance(t *testing.T) {
	store := newTestStore(t)
	defs := NewDefinitionService(store, nil)
	eng := NewEngine(store)
	ctx := context.Background()
	wfID := publishFlow(t, store, simpleFlow(types.ModeOr, "1:甲"))
	inst := startLeave(t, eng, wfID, nil)

	// 有运行中实例时不允许删除
	err := defs.DeleteDefinition(ctx, wfID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))

	require.NoError(t, eng.Cancel(ctx, inst.ID, Operator{UserID: "100", UserName: "张三"}, ""))
	require.NoError(t, defs.DeleteDefinition(ctx, wfID))

	_, err = defs.GetDefinition(ctx, wfID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
