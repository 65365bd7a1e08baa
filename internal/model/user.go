// Package model はドメインモデルを定義する。
package model

// ユーザーロール。バックエンドが発行するcredentialバンドル内のロールが
// 認可の唯一の正であり、クライアント側のメールドメイン判定はエンドポイント
// 選択のヒントに過ぎない。
const (
	RoleManager    = "manager"
	RoleTeamMember = "team_member"
)

// User はバックエンドに登録されたユーザーを表す。
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// Credentials はセッションのcredentialバンドルを表す。
// アクセストークン、リフレッシュトークン、ユーザー情報を1つの単位として扱い、
// ローカルセッションストアに永続化される唯一の表現である。
// TokenとUserは常に同時に更新される。RefreshTokenは少なくとも1回の
// Tokenローテーションをまたいで維持される。
type Credentials struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// Valid はバンドルが構造的に有効かを返す。
// アクセストークンを欠くバンドルは未認証と同義として扱う。
func (c *Credentials) Valid() bool {
	return c != nil && c.Token != ""
}
