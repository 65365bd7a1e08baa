package api

import "context"

// emailRequest は通知メール送信のリクエストボディ。
type emailRequest struct {
	To          string `json:"to"`
	TaskName    string `json:"taskName,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
}

// SendTaskAcceptedEmail はタスク受理の通知メール送信を依頼する。
func (c *Client) SendTaskAcceptedEmail(ctx context.Context, to, taskName, projectName string) error {
	return c.gw.postJSON(ctx, "email/task-accepted", emailRequest{
		To: to, TaskName: taskName, ProjectName: projectName,
	}, nil)
}

// SendProjectCreatedEmail はプロジェクト作成の通知メール送信を依頼する。
func (c *Client) SendProjectCreatedEmail(ctx context.Context, to, projectName string) error {
	return c.gw.postJSON(ctx, "email/project-created", emailRequest{
		To: to, ProjectName: projectName,
	}, nil)
}

// SendTaskCreatedEmail はタスク作成の通知メール送信を依頼する。
func (c *Client) SendTaskCreatedEmail(ctx context.Context, to, taskName, projectName string) error {
	return c.gw.postJSON(ctx, "email/task-created", emailRequest{
		To: to, TaskName: taskName, ProjectName: projectName,
	}, nil)
}
