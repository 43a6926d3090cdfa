package oaflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oaflow/oaflow/pkg/api/dto"
	"github.com/oaflow/oaflow/pkg/core/types"
)

// Client OA审批服务的HTTP客户端
type Client struct {
	baseURL  string
	userID   string
	userName string
	http     *http.Client
}

// New 创建客户端。userID用于填充X-User-Id请求头。
func New(baseURL, userID, userName string) *Client {
	return &Client{
		baseURL:  baseURL,
		userID:   userID,
		userName: userName,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// ========== 流程定义 ==========

// ListDefinitions 分页查询流程定义
func (c *Client) ListDefinitions(category string, status *int, pageNum, pageSize int) (*dto.PageResponse[types.Definition], error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if status != nil {
		q.Set("status", strconv.Itoa(*status))
	}
	q.Set("page_num", strconv.Itoa(pageNum))
	q.Set("page_size", strconv.Itoa(pageSize))

	var result dto.PageResponse[types.Definition]
	if err := c.do(http.MethodGet, "/api/v1/definitions?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PublishDefinition 发布流程定义
func (c *Client) PublishDefinition(id int64) error {
	return c.do(http.MethodPost, fmt.Sprintf("/api/v1/definitions/%d/publish", id), nil, nil)
}

// DisableDefinition 停用流程定义
func (c *Client) DisableDefinition(id int64) error {
	return c.do(http.MethodPost, fmt.Sprintf("/api/v1/definitions/%d/disable", id), nil, nil)
}

// ========== 审批实例 ==========

// StartInstance 发起审批实例
func (c *Client) StartInstance(req *dto.StartInstanceRequest) (*dto.StartInstanceResponse, error) {
	var result dto.StartInstanceResponse
	if err := c.do(http.MethodPost, "/api/v1/instances", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListInstances 分页查询审批实例
func (c *Client) ListInstances(status string, pageNum, pageSize int) (*dto.PageResponse[types.Instance], error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("page_num", strconv.Itoa(pageNum))
	q.Set("page_size", strconv.Itoa(pageSize))

	var result dto.PageResponse[types.Instance]
	if err := c.do(http.MethodGet, "/api/v1/instances?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetInstance 查询实例详情（含任务与历史）
func (c *Client) GetInstance(id int64) (*dto.InstanceDetailResponse, error) {
	var result dto.InstanceDetailResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/v1/instances/%d", id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelInstance 撤销审批实例
func (c *Client) CancelInstance(id int64, reason string) error {
	body := dto.CancelInstanceRequest{Reason: reason}
	return c.do(http.MethodPost, fmt.Sprintf("/api/v1/instances/%d/cancel", id), body, nil)
}

// ========== 审批任务 ==========

// ListPendingTasks 查询当前用户的待办任务
func (c *Client) ListPendingTasks(pageNum, pageSize int) (*dto.PageResponse[types.Task], error) {
	q := url.Values{}
	q.Set("page_num", strconv.Itoa(pageNum))
	q.Set("page_size", strconv.Itoa(pageSize))

	var result dto.PageResponse[types.Task]
	if err := c.do(http.MethodGet, "/api/v1/tasks/pending?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ApproveTask 同意任务
func (c *Client) ApproveTask(id int64, comment string) error {
	body := dto.DecideRequest{Comment: comment}
	return c.do(http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/approve", id), body, nil)
}

// RejectTask 驳回任务
func (c *Client) RejectTask(id int64, comment string) error {
	body := dto.DecideRequest{Comment: comment}
	return c.do(http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/reject", id), body, nil)
}

// TransferTask 转交任务
func (c *Client) TransferTask(id int64, targetUserID, targetUserName, comment string) error {
	body := dto.TransferRequest{
		TargetUserID:   targetUserID,
		TargetUserName: targetUserName,
		Comment:        comment,
	}
	return c.do(http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/transfer", id), body, nil)
}

// ========== 内部方法 ==========

// do 发送请求并解包统一响应结构
func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", c.userID)
	if c.userName != "" {
		req.Header.Set("X-User-Name", c.userName)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("请求服务器失败: %w", err)
	}
	defer resp.Body.Close()

	var envelope dto.APIResponse[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("解析响应失败 (HTTP %d): %w", resp.StatusCode, err)
	}
	if envelope.Code != 0 {
		return fmt.Errorf("服务器返回错误 (code=%d): %s", envelope.Code, envelope.Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("解析响应数据失败: %w", err)
		}
	}
	return nil
}
