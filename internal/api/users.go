package api

import (
	"context"

	"github.com/hitoshi/taskdeck/internal/model"
)

// ListUsers は全ユーザーを取得する。
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.gw.getJSON(ctx, "user", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetProfile は現在のユーザーのプロファイルを取得する。
func (c *Client) GetProfile(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.gw.getJSON(ctx, "user/profile", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile は現在のユーザーのプロファイルを更新する。
func (c *Client) UpdateProfile(ctx context.Context, user *model.User) (*model.User, error) {
	var updated model.User
	if err := c.gw.putJSON(ctx, "user/profile", user, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAccount は現在のユーザーのアカウントを削除する。
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.gw.deleteJSON(ctx, "user")
}
