// Package auth はログイン・ユーザー登録・ログアウトと、ロールに応じた
// エンドポイント振り分けを提供する。
//
// 認証エンドポイントへのリクエストはトークンリフレッシュの対象外とする
// ため、リクエストゲートウェイを経由せず素のHTTPクライアントで送信する。
// これにより、ログイン失敗の401が古いセッションのリフレッシュを誤って
// 起動することを構造的に防ぐ。
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/session"
)

// ロールごとに要求されるメールドメインサフィックス。
// マネージャーとチームメンバーは登録時にドメインで判別される。
const (
	ManagerEmailSuffix    = "@manager.com"
	TeamMemberEmailSuffix = "@example.com"
)

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	baseURL    string
	httpClient *http.Client
	store      session.Store
}

// NewService はServiceを生成する。
func NewService(baseURL string, httpClient *http.Client, store session.Store) *Service {
	return &Service{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		store:      store,
	}
}

// loginRequest はログインエンドポイントへのリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login は認証を行い、成功時にセッションを永続化する。
// メールドメインに応じてロール別のログインエンドポイントへ振り分けるが、
// セッションに記録されるロールはバックエンドのレスポンスを正とする。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Credentials, error) {
	var creds model.Credentials
	if err := s.postJSON(ctx, loginEndpoint(email), loginRequest{Email: email, Password: password}, &creds); err != nil {
		return nil, err
	}

	if !creds.Valid() {
		return nil, fmt.Errorf("ログインレスポンスにトークンが含まれていません: %w",
			model.NewInvalidCredentialsError())
	}

	if err := s.store.Set(&creds); err != nil {
		return nil, fmt.Errorf("セッションの保存に失敗しました: %w", err)
	}

	slog.Info("ログインしました",
		slog.String("user_id", creds.User.ID),
		slog.String("role", creds.User.Role),
	)
	return &creds, nil
}

// loginEndpoint はメールドメインからログインエンドポイントを決定する。
func loginEndpoint(email string) string {
	switch {
	case strings.HasSuffix(email, ManagerEmailSuffix):
		return "user/login/manager"
	case strings.HasSuffix(email, TeamMemberEmailSuffix):
		return "user/login/team-member"
	default:
		return "user/login"
	}
}

// RegisterRequest はユーザー登録の入力を表す。
type RegisterRequest struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Role            string
}

// registerPayload は登録エンドポイントへのリクエストボディ。
type registerPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register はユーザー登録を行う。ネットワークに出る前にパスワード確認、
// ロール、メールドメインの検証を行い、違反があればリクエストを送らずに
// エラーを返す。登録成功はログインを伴わない。
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	if req.Password != req.ConfirmPassword {
		return model.NewPasswordMismatchError()
	}

	var endpoint, requiredSuffix string
	switch req.Role {
	case model.RoleManager:
		endpoint = "user/register/manager"
		requiredSuffix = ManagerEmailSuffix
	case model.RoleTeamMember:
		endpoint = "user/register/team-member"
		requiredSuffix = TeamMemberEmailSuffix
	default:
		return model.NewInvalidRoleError(req.Role)
	}

	if !strings.HasSuffix(req.Email, requiredSuffix) {
		return model.NewEmailDomainError(req.Role, requiredSuffix)
	}

	payload := registerPayload{Name: req.Name, Email: req.Email, Password: req.Password}
	if err := s.postJSON(ctx, endpoint, payload, nil); err != nil {
		return err
	}

	slog.Info("ユーザー登録が完了しました",
		slog.String("email", req.Email),
		slog.String("role", req.Role),
	)
	return nil
}

// Logout はローカルのセッションを破棄する。
// セッションが存在しない場合も成功として扱う。
func (s *Service) Logout() error {
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("セッションのクリアに失敗しました: %w", err)
	}
	slog.Info("ログアウトしました")
	return nil
}

// CurrentUser は現在のセッションのユーザーを返す。
// 未ログインの場合はNOT_AUTHENTICATEDエラーを返す。
func (s *Service) CurrentUser() (*model.User, error) {
	creds := s.store.Current()
	if !creds.Valid() {
		return nil, model.NewNotAuthenticatedError()
	}
	user := creds.User
	return &user, nil
}

// postJSON は認証エンドポイントへPOSTリクエストを送る。
// 401は認証情報不正、その他の失敗は一般のリクエスト失敗に対応付ける。
func (s *Service) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("リクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized:
		return model.NewInvalidCredentialsError()
	default:
		return model.NewRequestFailedError(resp.StatusCode, errorMessage(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("レスポンスのパースに失敗しました: %w", err)
	}
	return nil
}

// errorMessage はエラーレスポンスからメッセージを取り出す。
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return detail
}
