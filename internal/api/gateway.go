// Package api はバックエンドへのHTTPリクエストパイプラインを提供する。
// 全リクエストへのbearerトークン付与、認証失敗の検出、リフレッシュトークン
// による1回限りのサイレントリトライ、リフレッシュ失敗時の強制ログアウトを
// 一元的に処理する。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/taskdeck/internal/metrics"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/session"
)

// requestState はリクエスト単位の状態機械の状態を表す。
// リトライ済みマーカーはリクエストオブジェクトへの副作用的なフラグではなく、
// ディスパッチごとに生成されるローカルな状態として保持する。これにより
// クローンされたリクエストにフラグが漏れるバグ類を構造的に排除する。
type requestState int

const (
	stateInit requestState = iota
	stateSent
	stateAuthFailed
	stateRefreshing
	stateReplayed
	stateLoggedOut
)

// String はログ出力用の状態名を返す。
func (s requestState) String() string {
	switch s {
	case stateInit:
		return "INIT"
	case stateSent:
		return "SENT"
	case stateAuthFailed:
		return "AUTH_FAILED"
	case stateRefreshing:
		return "REFRESHING"
	case stateReplayed:
		return "REPLAYED"
	case stateLoggedOut:
		return "LOGGED_OUT"
	default:
		return "UNKNOWN"
	}
}

// requestTrace は1回のディスパッチに閉じた状態機械のインスタンス。
type requestTrace struct {
	state requestState
}

// Gateway は全アウトバウンドコールをラップするリクエストゲートウェイ。
// セッションストアからアクセストークンを取得してbearerヘッダーを付与し、
// 認証失敗レスポンスに対して元リクエストごとに最大1回のリフレッシュと
// 再送を行う。
//
// 並行リクエストのリトライマーカーはそれぞれのリクエストに閉じているため、
// 複数のリクエストが同時にリフレッシュを起動しうる（リフレッシュは冪等
// なので許容する）。リフレッシュの直列化は行わない既知の制限である。
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	store      session.Store
	limiter    *rate.Limiter
	collector  metrics.Collector
	logger     *slog.Logger

	// onSessionInvalid はリフレッシュ失敗によるセッション破棄の後に
	// 呼ばれる。未認証エントリポイントへの誘導に使用する。
	onSessionInvalid func()
}

// NewGateway はGatewayを生成する。
func NewGateway(
	baseURL string,
	httpClient *http.Client,
	store session.Store,
	limiter *rate.Limiter,
	collector metrics.Collector,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		store:      store,
		limiter:    limiter,
		collector:  collector,
		logger:     logger,
	}
}

// SetOnSessionInvalid はセッション無効化時のフックを設定する。
func (g *Gateway) SetOnSessionInvalid(fn func()) {
	g.onSessionInvalid = fn
}

// Do はリクエストを1回ディスパッチする。
// 認証失敗（401）かつ未リトライの場合のみ、トークンリフレッシュと
// 1回限りの再送を行う。再送自体の失敗は（再度401であっても）そのまま
// 呼び出し側に返し、2回目のリフレッシュは試みない。
// 認証以外の失敗はリトライせずそのまま返す。
func (g *Gateway) Do(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	trace := &requestTrace{state: stateInit}
	defer func() {
		g.logger.Debug("リクエスト状態機械が終了しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("final_state", trace.state.String()),
		)
	}()

	respBody, status, err := g.send(ctx, method, path, body)
	trace.state = stateSent
	if err != nil {
		// トランスポート障害はそのまま伝播する
		return nil, 0, err
	}

	if status != http.StatusUnauthorized {
		return respBody, status, nil
	}

	creds := g.store.Current()
	if creds == nil || creds.RefreshToken == "" {
		// 未認証のまま送られたリクエストの401はリフレッシュ対象ではない
		return respBody, status, nil
	}

	trace.state = stateAuthFailed
	g.logger.Info("認証失敗を検出しました。トークンリフレッシュを試行します",
		slog.String("method", method),
		slog.String("path", path),
	)

	trace.state = stateRefreshing
	if refreshErr := g.refresh(ctx, creds); refreshErr != nil {
		trace.state = stateLoggedOut
		g.forceLogout(refreshErr)
		// 呼び出し側が待ち続けないよう、リフレッシュエラーを返す
		return nil, status, refreshErr
	}

	trace.state = stateReplayed
	g.logger.Info("トークンリフレッシュに成功しました。リクエストを再送します",
		slog.String("method", method),
		slog.String("path", path),
	)

	// 再送は1回限り。再送の結果は（401であっても）そのまま返す。
	replayBody, replayStatus, replayErr := g.send(ctx, method, path, body)
	if replayErr != nil {
		return nil, 0, replayErr
	}
	return replayBody, replayStatus, nil
}

// send はリクエストを構築して1回実行する。
// ボディは保持済みのバイト列から毎回組み立て直すため、再送時に
// 消費済みリーダーを再利用することはない。
func (g *Gateway) send(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("レート制限の待機に失敗しました: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.url(path), reader)
	if err != nil {
		return nil, 0, fmt.Errorf("リクエスト作成に失敗しました: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// トークンが存在する場合のみbearerヘッダーを付与する。
	// トークンがなければ未認証のまま送信する。
	if creds := g.store.Current(); creds.Valid() {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("HTTPリクエストに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, 0, fmt.Errorf("HTTPリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	duration := time.Since(start)
	g.collector.RecordRequest(method, resp.StatusCode)
	g.collector.RecordRequestLatency(duration)
	g.logger.Debug("リクエストが完了しました",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("http_status", resp.StatusCode),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return respBody, resp.StatusCode, nil
}

// refreshResponse はリフレッシュエンドポイントのレスポンスを表す。
type refreshResponse struct {
	Token string `json:"token"`
}

// refresh はリフレッシュトークンを新しいアクセストークンに交換し、
// セッションストアを更新する。リフレッシュトークンとユーザー情報は
// 維持され、アクセストークンのみがローテーションされる。
func (g *Gateway) refresh(ctx context.Context, creds *model.Credentials) error {
	payload, err := json.Marshal(map[string]string{"refreshToken": creds.RefreshToken})
	if err != nil {
		return fmt.Errorf("リフレッシュリクエストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url("user/refresh-token"), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("リフレッシュリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.collector.RecordTokenRefresh(false)
		return fmt.Errorf("リフレッシュリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.collector.RecordTokenRefresh(false)
		return fmt.Errorf("トークンリフレッシュがステータス %d で失敗しました: %w",
			resp.StatusCode, model.NewSessionExpiredError())
	}

	var refreshed refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&refreshed); err != nil {
		g.collector.RecordTokenRefresh(false)
		return fmt.Errorf("リフレッシュレスポンスのパースに失敗しました: %w", err)
	}
	if refreshed.Token == "" {
		g.collector.RecordTokenRefresh(false)
		return fmt.Errorf("リフレッシュレスポンスにトークンが含まれていません: %w",
			model.NewSessionExpiredError())
	}

	rotated := *creds
	rotated.Token = refreshed.Token
	if err := g.store.Set(&rotated); err != nil {
		g.collector.RecordTokenRefresh(false)
		return fmt.Errorf("ローテーション後のセッション保存に失敗しました: %w", err)
	}

	g.collector.RecordTokenRefresh(true)
	return nil
}

// forceLogout はセッションを破棄し、未認証エントリポイントへの誘導
// フックを呼ぶ。
func (g *Gateway) forceLogout(cause error) {
	g.logger.Warn("トークンリフレッシュに失敗したためログアウトします",
		slog.String("error", cause.Error()),
	)

	if err := g.store.Clear(); err != nil {
		g.logger.Error("セッションのクリアに失敗しました",
			slog.String("error", err.Error()),
		)
	}

	g.collector.RecordForcedLogout()

	if g.onSessionInvalid != nil {
		g.onSessionInvalid()
	}
}

func (g *Gateway) url(path string) string {
	return g.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// checkStatus はHTTPステータスをドメインエラーに対応付ける。
// 403は権限不足としてセッションを維持したまま表示用エラーになり、
// その他の4xx/5xxは一般のリクエスト失敗となる。
func checkStatus(method, path string, status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return model.NewInvalidCredentialsError()
	case status == http.StatusForbidden:
		return model.NewPermissionDeniedError(method + " " + path)
	default:
		return model.NewRequestFailedError(status, errorDetail(body))
	}
}

// errorDetail はエラーレスポンスのボディからメッセージを取り出す。
// JSONの message フィールドを優先し、なければボディ先頭を使う。
func errorDetail(body []byte) string {
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

// getJSON はGETリクエストを送り、成功レスポンスをoutにデコードする。
func (g *Gateway) getJSON(ctx context.Context, path string, out any) error {
	body, status, err := g.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := checkStatus(http.MethodGet, path, status, body); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("レスポンスのパースに失敗しました: %w", err)
	}
	return nil
}

// postJSON はPOSTリクエストを送り、成功レスポンスをoutにデコードする。
// outがnilの場合はレスポンスボディを破棄する。
func (g *Gateway) postJSON(ctx context.Context, path string, in, out any) error {
	return g.sendJSON(ctx, http.MethodPost, path, in, out)
}

// putJSON はPUTリクエストを送り、成功レスポンスをoutにデコードする。
func (g *Gateway) putJSON(ctx context.Context, path string, in, out any) error {
	return g.sendJSON(ctx, http.MethodPut, path, in, out)
}

// deleteJSON はDELETEリクエストを送る。
func (g *Gateway) deleteJSON(ctx context.Context, path string) error {
	body, status, err := g.Do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return checkStatus(http.MethodDelete, path, status, body)
}

func (g *Gateway) sendJSON(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
	}

	body, status, err := g.Do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if err := checkStatus(method, path, status, body); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("レスポンスのパースに失敗しました: %w", err)
	}
	return nil
}
