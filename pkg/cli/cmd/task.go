package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oaflow/oaflow/pkg/cli/oaflow"
	"github.com/oaflow/oaflow/pkg/cli/output"
)

var (
	taskComment    string
	taskTargetID   string
	taskTargetName string
	taskPageNum    int
	taskPageSize   int
)

// taskCmd task子命令
var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "审批任务管理命令",
	Long:  `处理审批任务，包括查看待办、同意、驳回和转交。需要通过 --user 指定操作人。`,
}

// taskPendingCmd 查看待办任务
var taskPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "查看我的待办任务",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := oaflow.New(serverURL, userID, userName)
		result, err := client.ListPendingTasks(taskPageNum, taskPageSize)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无待办任务")
			return nil
		}

		table := output.NewTable([]string{"ID", "INSTANCE_NO", "NODE", "CREATED", "DUE"})
		for _, t := range result.Items {
			due := "-"
			if t.DueTime != nil {
				due = t.DueTime.Format("2006-01-02 15:04:05")
			}
			table.AddRow([]string{
				strconv.FormatInt(t.ID, 10),
				t.InstanceNo,
				t.NodeName,
				t.CreateTime.Format("2006-01-02 15:04:05"),
				due,
			})
		}
		table.Render()
		fmt.Printf("\n总计: %d 条记录\n", result.Total)
		return nil
	},
}

// taskApproveCmd 同意任务
var taskApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "同意审批任务",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("ID无效: %s", args[0])
		}
		client := oaflow.New(serverURL, userID, userName)
		if err := client.ApproveTask(id, taskComment); err != nil {
			output.Error("审批失败: %v", err)
			return err
		}
		output.Success("任务已同意: %d", id)
		return nil
	},
}

// taskRejectCmd 驳回任务
var taskRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "驳回审批任务",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("ID无效: %s", args[0])
		}
		client := oaflow.New(serverURL, userID, userName)
		if err := client.RejectTask(id, taskComment); err != nil {
			output.Error("驳回失败: %v", err)
			return err
		}
		output.Success("任务已驳回: %d", id)
		return nil
	},
}

// taskTransferCmd 转交任务
var taskTransferCmd = &cobra.Command{
	Use:   "transfer <id>",
	Short: "转交审批任务给其他用户",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("ID无效: %s", args[0])
		}
		client := oaflow.New(serverURL, userID, userName)
		if err := client.TransferTask(id, taskTargetID, taskTargetName, taskComment); err != nil {
			output.Error("转交失败: %v", err)
			return err
		}
		output.Success("任务已转交: %d -> %s", id, taskTargetID)
		return nil
	},
}

func init() {
	taskPendingCmd.Flags().IntVar(&taskPageNum, "page", 1, "页码")
	taskPendingCmd.Flags().IntVar(&taskPageSize, "size", 20, "每页记录数")

	taskApproveCmd.Flags().StringVar(&taskComment, "comment", "", "审批意见")
	taskRejectCmd.Flags().StringVar(&taskComment, "comment", "", "审批意见")

	taskTransferCmd.Flags().StringVar(&taskTargetID, "to", "", "接收人用户ID")
	taskTransferCmd.Flags().StringVar(&taskTargetName, "to-name", "", "接收人姓名")
	taskTransferCmd.Flags().StringVar(&taskComment, "comment", "", "转交说明")
	taskTransferCmd.MarkFlagRequired("to")

	taskCmd.AddCommand(taskPendingCmd)
	taskCmd.AddCommand(taskApproveCmd)
	taskCmd.AddCommand(taskRejectCmd)
	taskCmd.AddCommand(taskTransferCmd)
}
