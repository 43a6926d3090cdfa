package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// ========== 彩色输出 ==========

// Success 打印成功消息（绿色）
func Success(format string, args ...interface{}) {
	color.Green("✓ "+format, args...)
}

// Error 打印错误消息（红色，输出到stderr）
func Error(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// Info 打印提示消息（青色）
func Info(format string, args ...interface{}) {
	color.Cyan(format, args...)
}

// Warn 打印警告消息（黄色）
func Warn(format string, args ...interface{}) {
	color.Yellow("! "+format, args...)
}

// PrintJSON 以缩进JSON格式输出任意对象
func PrintJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// ========== 表格输出 ==========

// Table 简单的对齐表格
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable 创建表格
func NewTable(headers []string) *Table {
	return &Table{headers: headers}
}

// AddRow 追加一行
func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

// Render 渲染到标准输出
func (t *Table) Render() {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(t.headers, "\t"))
	for _, row := range t.rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}
