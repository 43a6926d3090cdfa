package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oaflow/oaflow/pkg/cli/oaflow"
	"github.com/oaflow/oaflow/pkg/cli/output"
	"github.com/oaflow/oaflow/pkg/core/types"
)

var (
	definitionCategory string
	definitionPageNum  int
	definitionPageSize int
)

// definitionCmd definition子命令
var definitionCmd = &cobra.Command{
	Use:   "definition",
	Short: "流程定义管理命令",
	Long:  `管理审批流程定义，包括列出、发布和停用。`,
}

// definitionListCmd 列出流程定义
var definitionListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出流程定义",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := oaflow.New(serverURL, userID, userName)
		result, err := client.ListDefinitions(definitionCategory, nil, definitionPageNum, definitionPageSize)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无流程定义")
			return nil
		}

		table := output.NewTable([]string{"ID", "KEY", "NAME", "CATEGORY", "VERSION", "STATUS"})
		for _, def := range result.Items {
			table.AddRow([]string{
				strconv.FormatInt(def.ID, 10),
				def.WorkflowKey,
				def.WorkflowName,
				def.Category,
				strconv.Itoa(def.Version),
				formatDefinitionStatus(def.Status),
			})
		}
		table.Render()
		fmt.Printf("\n总计: %d 条记录\n", result.Total)
		return nil
	},
}

// definitionPublishCmd 发布流程定义
var definitionPublishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "发布流程定义",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("ID无效: %s", args[0])
		}
		client := oaflow.New(serverURL, userID, userName)
		if err := client.PublishDefinition(id); err != nil {
			output.Error("发布失败: %v", err)
			return err
		}
		output.Success("流程定义已发布: %d", id)
		return nil
	},
}

// definitionDisableCmd 停用流程定义
var definitionDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "停用流程定义",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("ID无效: %s", args[0])
		}
		client := oaflow.New(serverURL, userID, userName)
		if err := client.DisableDefinition(id); err != nil {
			output.Error("停用失败: %v", err)
			return err
		}
		output.Success("流程定义已停用: %d", id)
		return nil
	},
}

func init() {
	definitionListCmd.Flags().StringVar(&definitionCategory, "category", "", "按分类过滤")
	definitionListCmd.Flags().IntVar(&definitionPageNum, "page", 1, "页码")
	definitionListCmd.Flags().IntVar(&definitionPageSize, "size", 20, "每页记录数")

	definitionCmd.AddCommand(definitionListCmd)
	definitionCmd.AddCommand(definitionPublishCmd)
	definitionCmd.AddCommand(definitionDisableCmd)
}

// formatDefinitionStatus 格式化定义状态显示
func formatDefinitionStatus(status int) string {
	switch status {
	case types.DefinitionDraft:
		return "📝 草稿"
	case types.DefinitionPublished:
		return "✅ 已发布"
	case types.DefinitionDisabled:
		return "🛑 已停用"
	default:
		return strconv.Itoa(status)
	}
}
