package api

import (
	"context"

	"github.com/hitoshi/taskdeck/internal/model"
)

// ListProjects は全プロジェクトを取得する。
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := c.gw.getJSON(ctx, "project", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject は指定IDのプロジェクトを取得する。
func (c *Client) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	if err := c.gw.getJSON(ctx, "project/"+escape(id), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject はプロジェクトを作成し、作成されたレコードを返す。
func (c *Client) CreateProject(ctx context.Context, project *model.Project) (*model.Project, error) {
	var created model.Project
	if err := c.gw.postJSON(ctx, "project", project, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProject は指定IDのプロジェクトを更新する。
func (c *Client) UpdateProject(ctx context.Context, id string, project *model.Project) (*model.Project, error) {
	var updated model.Project
	if err := c.gw.putJSON(ctx, "project/"+escape(id), project, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProject は指定IDのプロジェクトを削除する。
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.gw.deleteJSON(ctx, "project/"+escape(id))
}
