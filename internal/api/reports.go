package api

import (
	"context"

	"github.com/hitoshi/taskdeck/internal/model"
)

// ListReports は全レポートを取得する。
func (c *Client) ListReports(ctx context.Context) ([]model.Report, error) {
	var reports []model.Report
	if err := c.gw.getJSON(ctx, "report", &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// GetReport は指定IDのレポートを取得する。
func (c *Client) GetReport(ctx context.Context, id string) (*model.Report, error) {
	var report model.Report
	if err := c.gw.getJSON(ctx, "report/"+escape(id), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// CreateReport はレポートを作成し、作成されたレコードを返す。
func (c *Client) CreateReport(ctx context.Context, report *model.Report) (*model.Report, error) {
	var created model.Report
	if err := c.gw.postJSON(ctx, "report", report, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateReport は指定IDのレポートを更新する。
func (c *Client) UpdateReport(ctx context.Context, id string, report *model.Report) (*model.Report, error) {
	var updated model.Report
	if err := c.gw.putJSON(ctx, "report/"+escape(id), report, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteReport は指定IDのレポートを削除する。
func (c *Client) DeleteReport(ctx context.Context, id string) error {
	return c.gw.deleteJSON(ctx, "report/"+escape(id))
}

// GetProjectProgressReport はプロジェクトの進捗レポートを取得する。
func (c *Client) GetProjectProgressReport(ctx context.Context, projectID string) (*model.Report, error) {
	var report model.Report
	if err := c.gw.getJSON(ctx, "report/project-progress/"+escape(projectID), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetTaskCompletionReport はプロジェクトのタスク完了レポートを取得する。
func (c *Client) GetTaskCompletionReport(ctx context.Context, projectID string) (*model.Report, error) {
	var report model.Report
	if err := c.gw.getJSON(ctx, "report/task-completion/"+escape(projectID), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetTimelineReport はプロジェクトのタイムラインレポートを取得する。
func (c *Client) GetTimelineReport(ctx context.Context, projectID string) (*model.Report, error) {
	var report model.Report
	if err := c.gw.getJSON(ctx, "report/timeline/"+escape(projectID), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetBudgetUtilizationReport はプロジェクトの予算消化レポートを取得する。
func (c *Client) GetBudgetUtilizationReport(ctx context.Context, projectID string) (*model.Report, error) {
	var report model.Report
	if err := c.gw.getJSON(ctx, "report/budget-utilization/"+escape(projectID), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// CreateTaskUpdate はタスク更新レポートを作成する。
func (c *Client) CreateTaskUpdate(ctx context.Context, update *model.Report) (*model.Report, error) {
	var created model.Report
	if err := c.gw.postJSON(ctx, "report/task-update", update, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetTaskUpdateReport はタスクの更新レポートを取得する。
func (c *Client) GetTaskUpdateReport(ctx context.Context, taskID string) (*model.Report, error) {
	var report model.Report
	if err := c.gw.getJSON(ctx, "report/task-update/"+escape(taskID), &report); err != nil {
		return nil, err
	}
	return &report, nil
}
