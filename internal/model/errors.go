// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, network, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeSessionExpired     = "SESSION_EXPIRED"
	ErrCodePermissionDenied   = "PERMISSION_DENIED"
	ErrCodePasswordMismatch   = "PASSWORD_MISMATCH"
	ErrCodeEmailDomain        = "EMAIL_DOMAIN_MISMATCH"
	ErrCodeInvalidRole        = "INVALID_ROLE"
	ErrCodeRequestFailed      = "REQUEST_FAILED"
	ErrCodeNotAuthenticated   = "NOT_AUTHENTICATED"
)

// NewInvalidCredentialsError は認証情報不正エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewSessionExpiredError はセッション失効エラーを生成する。
// トークンリフレッシュ自体が失敗した場合に使用され、
// セッションストアのクリアと再ログイン誘導を伴う。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "セッションの有効期限が切れました。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewPermissionDeniedError は権限不足エラーを生成する。
// セッションは有効なまま維持され、リトライは行わない。
func NewPermissionDeniedError(operation string) *APIError {
	return &APIError{
		Code:     ErrCodePermissionDenied,
		Message:  fmt.Sprintf("この操作を実行する権限がありません: %s", operation),
		Category: "auth",
		Action:   "マネージャー権限が必要な操作です。管理者に問い合わせてください。",
	}
}

// NewPasswordMismatchError はパスワード不一致エラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordMismatch,
		Message:  "パスワードと確認用パスワードが一致しません。",
		Category: "validation",
		Action:   "同じパスワードを2回入力してください。",
	}
}

// NewEmailDomainError はロールとメールドメインの不整合エラーを生成する。
func NewEmailDomainError(role, requiredSuffix string) *APIError {
	return &APIError{
		Code:     ErrCodeEmailDomain,
		Message:  fmt.Sprintf("ロール %s には %s で終わるメールアドレスが必要です。", role, requiredSuffix),
		Category: "validation",
		Action:   "ロールに対応したドメインのメールアドレスを使用してください。",
	}
}

// NewInvalidRoleError は無効なロールエラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "manager または team_member のいずれかを指定してください。",
	}
}

// NewRequestFailedError はリクエスト失敗エラーを生成する。
func NewRequestFailedError(status int, detail string) *APIError {
	return &APIError{
		Code:     ErrCodeRequestFailed,
		Message:  fmt.Sprintf("リクエストがステータス %d で失敗しました: %s", status, detail),
		Category: "network",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewNotAuthenticatedError は未認証エラーを生成する。
func NewNotAuthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthenticated,
		Message:  "ログインしていません。",
		Category: "auth",
		Action:   "taskdeck login でログインしてください。",
	}
}
