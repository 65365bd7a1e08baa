package api

import (
	"context"

	"github.com/hitoshi/taskdeck/internal/model"
)

// AssignTaskRequest はタスク割り当てのリクエストボディ。
type AssignTaskRequest struct {
	TaskID     string `json:"taskId"`
	AssignedTo string `json:"assignedTo"`
}

// ListTasks は全タスクを取得する。
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.gw.getJSON(ctx, "task", &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask は指定IDのタスクを取得する。
func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := c.gw.getJSON(ctx, "task/"+escape(id), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask はタスクを作成し、作成されたレコードを返す。
func (c *Client) CreateTask(ctx context.Context, task *model.Task) (*model.Task, error) {
	var created model.Task
	if err := c.gw.postJSON(ctx, "task", task, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTask は指定IDのタスクを更新する。
func (c *Client) UpdateTask(ctx context.Context, id string, task *model.Task) (*model.Task, error) {
	var updated model.Task
	if err := c.gw.putJSON(ctx, "task/"+escape(id), task, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTask は指定IDのタスクを削除する。
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.gw.deleteJSON(ctx, "task/"+escape(id))
}

// AssignTask はタスクをユーザーに割り当てる。
func (c *Client) AssignTask(ctx context.Context, req AssignTaskRequest) error {
	return c.gw.postJSON(ctx, "task/assign", req, nil)
}
