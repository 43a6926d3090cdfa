package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oaflow/oaflow/pkg/api/dto"
	"github.com/oaflow/oaflow/pkg/cli/oaflow"
	"github.com/oaflow/oaflow/pkg/cli/output"
)

var (
	instanceStatus   string
	instancePageNum  int
	instancePageSize int

	startWorkflowID int64
	startTitle      string
	startForm       string
	startPriority   int
	cancelReason    string
)

// instanceCmd instance子命令
var instanceCmd = &cobra.Command{
	Use:   "instance",
	Short: "审批实例管理命令",
	Long:  `管理审批实例，包括发起、列出、查看详情和撤销。`,
}

// instanceStartCmd 发起审批实例
var instanceStartCmd = &cobra.Command{
	Use:   "start",
	Short: "发起审批实例",
	RunE: func(cmd *cobra.Command, args []string) error {
		var formData map[string]interface{}
		if startForm != "" {
			if err := json.Unmarshal([]byte(startForm), &formData); err != nil {
				return fmt.Errorf("表单数据不是合法JSON: %w", err)
			}
		}

		client := oaflow.New(serverURL, userID, userName)
		result, err := client.StartInstance(&dto.StartInstanceRequest{
			WorkflowID: startWorkflowID,
			Title:      startTitle,
			FormData:   formData,
			Priority:   startPriority,
		})
		if err != nil {
			output.Error("发起失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}
		output.Success("审批已发起: %s (ID=%d, 状态=%s)", result.InstanceNo, result.InstanceID, result.Status)
		return nil
	},
}

// instanceListCmd 列出审批实例
var instanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出审批实例",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := oaflow.New(serverURL, userID, userName)
		result, err := client.ListInstances(instanceStatus, instancePageNum, instancePageSize)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无审批实例")
			return nil
		}

		table := output.NewTable([]string{"ID", "INSTANCE_NO", "WORKFLOW", "TITLE", "STATUS", "STARTED"})
		for _, inst := range result.Items {
			table.AddRow([]string{
				strconv.FormatInt(inst.ID, 10),
				inst.InstanceNo,
				inst.WorkflowName,
				inst.Title,
				formatInstanceStatus(string(inst.Status)),
				inst.StartTime.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		fmt.Printf("\n总计: %d 条记录\n", result.Total)
		return nil
	},
}

// instanceGetCmd 查看实例详情
var instanceGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "查看审批实例详情",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("ID无效: %s", args[0])
		}

		client := oaflow.New(serverURL, userID, userName)
		detail, err := client.GetInstance(id)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(detail)
		}

		inst := detail.Instance
		fmt.Printf("Instance: %s\n", inst.InstanceNo)
		fmt.Printf("Workflow: %s (%s)\n", inst.WorkflowName, inst.WorkflowKey)
		fmt.Printf("Title:    %s\n", inst.Title)
		fmt.Printf("Status:   %s\n", formatInstanceStatus(string(inst.Status)))
		fmt.Printf("Starter:  %s (%s)\n", inst.StartUserName, inst.StartUserID)
		fmt.Printf("Started:  %s\n", inst.StartTime.Format("2006-01-02 15:04:05"))
		if inst.EndTime != nil {
			fmt.Printf("Finished: %s\n", inst.EndTime.Format("2006-01-02 15:04:05"))
		}

		fmt.Println("\nTasks:")
		for _, t := range detail.Tasks {
			fmt.Printf("  %s %s  %s -> %s\n", getTaskStatusIcon(string(t.Status)), t.NodeName, t.AssigneeName, t.Status)
		}

		fmt.Println("\nHistory:")
		for _, h := range detail.History {
			comment := ""
			if h.Comment != "" {
				comment = "  " + h.Comment
			}
			fmt.Printf("  [%s] %s %s%s\n", h.OperateTime.Format("01-02 15:04"), h.OperatorName, h.Action, comment)
		}
		return nil
	},
}

// instanceCancelCmd 撤销审批实例
var instanceCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "撤销审批实例（仅发起人）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("ID无效: %s", args[0])
		}
		client := oaflow.New(serverURL, userID, userName)
		if err := client.CancelInstance(id, cancelReason); err != nil {
			output.Error("撤销失败: %v", err)
			return err
		}
		output.Success("审批实例已撤销: %d", id)
		return nil
	},
}

func init() {
	instanceStartCmd.Flags().Int64Var(&startWorkflowID, "workflow", 0, "流程定义ID")
	instanceStartCmd.Flags().StringVar(&startTitle, "title", "", "审批标题")
	instanceStartCmd.Flags().StringVar(&startForm, "form", "", "表单数据（JSON字符串）")
	instanceStartCmd.Flags().IntVar(&startPriority, "priority", 0, "优先级")
	instanceStartCmd.MarkFlagRequired("workflow")
	instanceStartCmd.MarkFlagRequired("title")

	instanceListCmd.Flags().StringVar(&instanceStatus, "status", "", "按状态过滤 (RUNNING/APPROVED/REJECTED/CANCELED)")
	instanceListCmd.Flags().IntVar(&instancePageNum, "page", 1, "页码")
	instanceListCmd.Flags().IntVar(&instancePageSize, "size", 20, "每页记录数")

	instanceCancelCmd.Flags().StringVar(&cancelReason, "reason", "", "撤销原因")

	instanceCmd.AddCommand(instanceStartCmd)
	instanceCmd.AddCommand(instanceListCmd)
	instanceCmd.AddCommand(instanceGetCmd)
	instanceCmd.AddCommand(instanceCancelCmd)
}

// formatInstanceStatus 格式化实例状态显示
func formatInstanceStatus(status string) string {
	switch status {
	case "RUNNING":
		return "🔄 审批中"
	case "APPROVED":
		return "✅ 已通过"
	case "REJECTED":
		return "❌ 已拒绝"
	case "CANCELED":
		return "🛑 已撤销"
	case "TERMINATED":
		return "⛔ 已终止"
	default:
		return status
	}
}

// getTaskStatusIcon 获取任务状态图标
func getTaskStatusIcon(status string) string {
	switch status {
	case "PENDING":
		return "⏳"
	case "APPROVED":
		return "✅"
	case "REJECTED":
		return "❌"
	case "TRANSFERRED":
		return "↪️"
	case "CANCELED":
		return "🛑"
	default:
		return "❓"
	}
}
