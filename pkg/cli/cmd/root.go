package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局变量
	serverURL  string
	userID     string
	userName   string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "oaflow",
	Short: "OAFlow CLI - 审批流引擎命令行工具",
	Long: `OAFlow CLI 是一个用于管理审批流程的命令行工具。

支持的功能：
  - 管理流程定义（列出、发布、停用）
  - 管理审批实例（发起、列出、查看详情、撤销）
  - 处理审批任务（查看待办、同意、驳回、转交）

使用示例：
  # 列出所有流程定义
  oaflow definition list

  # 发起审批
  oaflow instance start --workflow 1 --title "请假申请" --form '{"days": 3}'

  # 查看我的待办
  oaflow task pending

  # 同意任务
  oaflow task approve <task-id> --comment "同意"`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "OAFlow服务器地址")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "操作人用户ID")
	rootCmd.PersistentFlags().StringVar(&userName, "name", "", "操作人姓名")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(definitionCmd)
	rootCmd.AddCommand(instanceCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(versionCmd)
}
