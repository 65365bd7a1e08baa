package api

import (
	"context"

	"github.com/hitoshi/taskdeck/internal/model"
)

// AddTeamMemberRequest はチームメンバー追加のリクエストボディ。
type AddTeamMemberRequest struct {
	UserID string `json:"userId"`
}

// ListTeams は全チームを取得する。
func (c *Client) ListTeams(ctx context.Context) ([]model.Team, error) {
	var teams []model.Team
	if err := c.gw.getJSON(ctx, "team", &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// GetTeam は指定IDのチームを取得する。
func (c *Client) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	var team model.Team
	if err := c.gw.getJSON(ctx, "team/"+escape(id), &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// CreateTeam はチームを作成し、作成されたレコードを返す。
func (c *Client) CreateTeam(ctx context.Context, team *model.Team) (*model.Team, error) {
	var created model.Team
	if err := c.gw.postJSON(ctx, "team", team, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTeam は指定IDのチームを更新する。
func (c *Client) UpdateTeam(ctx context.Context, id string, team *model.Team) (*model.Team, error) {
	var updated model.Team
	if err := c.gw.putJSON(ctx, "team/"+escape(id), team, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTeam は指定IDのチームを削除する。
func (c *Client) DeleteTeam(ctx context.Context, id string) error {
	return c.gw.deleteJSON(ctx, "team/"+escape(id))
}

// AddTeamMember はチームにメンバーを追加する。
func (c *Client) AddTeamMember(ctx context.Context, teamID string, req AddTeamMemberRequest) error {
	return c.gw.postJSON(ctx, "team/"+escape(teamID)+"/members", req, nil)
}
