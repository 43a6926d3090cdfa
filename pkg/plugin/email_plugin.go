package plugin

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/oaflow/oaflow/pkg/core/events"
)

// EmailPlugin 邮件通知插件（对外导出）
// 在审批事件发生时向固定收件人发送邮件提醒
type EmailPlugin struct {
	name     string
	smtpHost string
	smtpPort int
	username string
	password string
	from     string
	to       []string
	enabled  bool
}

// NewEmailPlugin 创建邮件通知插件（对外导出）
func NewEmailPlugin() Plugin {
	return &EmailPlugin{
		name:    "email",
		enabled: false,
	}
}

// Name 插件名称（实现Plugin接口）
func (e *EmailPlugin) Name() string {
	return e.name
}

// Init 初始化插件（实现Plugin接口）
func (e *EmailPlugin) Init(params map[string]string) error {
	e.smtpHost = params["smtp_host"]
	if e.smtpHost == "" {
		return fmt.Errorf("smtp_host参数不能为空")
	}

	// SMTP端口（默认25）
	e.smtpPort = 25
	if portStr := params["smtp_port"]; portStr != "" {
		if _, err := fmt.Sscanf(portStr, "%d", &e.smtpPort); err != nil {
			return fmt.Errorf("smtp_port参数格式错误: %w", err)
		}
	}

	// 用户名和密码（可选，用于认证）
	e.username = params["username"]
	e.password = params["password"]

	e.from = params["from"]
	if e.from == "" {
		return fmt.Errorf("from参数不能为空")
	}

	// 收件人地址（多个用逗号分隔）
	toStr := params["to"]
	if toStr == "" {
		return fmt.Errorf("to参数不能为空")
	}
	e.to = strings.Split(toStr, ",")
	for i := range e.to {
		e.to[i] = strings.TrimSpace(e.to[i])
	}

	e.enabled = true
	log.Printf("✅ [EmailPlugin] 初始化完成: SMTP=%s:%d, From=%s, To=%v", e.smtpHost, e.smtpPort, e.from, e.to)
	return nil
}

// Execute 处理审批事件（实现Plugin接口）
func (e *EmailPlugin) Execute(event *events.Event) error {
	if !e.enabled {
		return fmt.Errorf("邮件插件未初始化")
	}

	subject := e.buildSubject(event)
	body := e.buildBody(event)

	if err := e.sendEmail(subject, body); err != nil {
		log.Printf("❌ [EmailPlugin] 发送邮件失败: %v", err)
		return err
	}

	log.Printf("✅ [EmailPlugin] 邮件发送成功: Event=%s, Subject=%s", event.Type, subject)
	return nil
}

// buildSubject 构建邮件主题
func (e *EmailPlugin) buildSubject(event *events.Event) string {
	title, _ := event.Data["title"].(string)
	switch event.Type {
	case events.EventInstanceStarted:
		return fmt.Sprintf("[审批发起] %s", title)
	case events.EventInstanceFinished:
		status, _ := event.Data["status"].(string)
		return fmt.Sprintf("[审批结束] %s (%s)", title, status)
	case events.EventTaskCreated:
		return fmt.Sprintf("[待办提醒] %s", title)
	case events.EventTaskCompleted:
		return fmt.Sprintf("[任务处理] %s", title)
	case events.EventTaskOverdue:
		return fmt.Sprintf("[超时提醒] %s", title)
	case events.EventCcCreated:
		return fmt.Sprintf("[抄送通知] %s", title)
	default:
		return fmt.Sprintf("[系统通知] %s", event.Type)
	}
}

// buildBody 构建邮件正文
func (e *EmailPlugin) buildBody(event *events.Event) string {
	var body strings.Builder
	body.WriteString(fmt.Sprintf("事件类型: %s\n", event.Type))
	body.WriteString(fmt.Sprintf("发生时间: %s\n", event.Timestamp.Format("2006-01-02 15:04:05")))

	if event.InstanceID > 0 {
		body.WriteString(fmt.Sprintf("实例ID: %d\n", event.InstanceID))
	}
	if event.TaskID > 0 {
		body.WriteString(fmt.Sprintf("任务ID: %d\n", event.TaskID))
	}
	if event.UserID != "" {
		body.WriteString(fmt.Sprintf("相关用户: %s\n", event.UserID))
	}
	if len(event.Data) > 0 {
		body.WriteString("\n详细信息:\n")
		for k, v := range event.Data {
			body.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
		}
	}
	return body.String()
}

// sendEmail 发送邮件
func (e *EmailPlugin) sendEmail(subject, body string) error {
	message := e.buildMessage(subject, body)
	addr := fmt.Sprintf("%s:%d", e.smtpHost, e.smtpPort)

	// 配置了用户名和密码时使用认证
	if e.username != "" && e.password != "" {
		auth := smtp.PlainAuth("", e.username, e.password, e.smtpHost)

		// 465端口需要先建立TLS连接
		if e.smtpPort == 465 {
			return e.sendEmailTLS(addr, auth, message)
		}

		return smtp.SendMail(addr, auth, e.from, e.to, []byte(message))
	}

	// 无认证发送（仅用于测试环境）
	return smtp.SendMail(addr, nil, e.from, e.to, []byte(message))
}

// sendEmailTLS 通过TLS发送邮件（用于465端口）
func (e *EmailPlugin) sendEmailTLS(addr string, auth smtp.Auth, message string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: e.smtpHost,
	})
	if err != nil {
		return fmt.Errorf("TLS连接失败: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.smtpHost)
	if err != nil {
		return fmt.Errorf("创建SMTP客户端失败: %w", err)
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP认证失败: %w", err)
	}

	if err := client.Mail(e.from); err != nil {
		return fmt.Errorf("设置发件人失败: %w", err)
	}

	for _, to := range e.to {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("设置收件人失败: %w", err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("获取数据写入器失败: %w", err)
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		return fmt.Errorf("写入邮件内容失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("关闭数据写入器失败: %w", err)
	}

	return client.Quit()
}

// buildMessage 构建邮件消息
func (e *EmailPlugin) buildMessage(subject, body string) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", e.from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(e.to, ", ")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)
	return message.String()
}
