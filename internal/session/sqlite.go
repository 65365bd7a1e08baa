package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hitoshi/taskdeck/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteStore はSQLiteデータベースの単一行にバンドルを永続化するStore実装。
// 永続化表現はFileStoreと同じJSONペイロードで、格納先が異なるだけである。
// 複数プロセスから同一セッションを参照する配置で使用する。
type SQLiteStore struct {
	db *sql.DB

	mu      sync.RWMutex
	current *model.Credentials
}

// NewSQLiteStore は指定パスのSQLiteデータベースを開き、スキーマを初期化する。
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("セッションディレクトリの作成に失敗しました: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("セッションデータベースのオープンに失敗しました: %w", err)
	}

	// 常に1行のみを保持する。CHECK制約で2行目の挿入を禁止する。
	const schema = `CREATE TABLE IF NOT EXISTS session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("セッションテーブルの作成に失敗しました: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load は永続化されたバンドルを読み込む。
// 行が存在しない、または内容が無効な場合は (nil, nil) を返す。
func (s *SQLiteStore) Load() (*model.Credentials, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM session WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		s.setCurrent(nil)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("セッションレコードの読み込みに失敗しました: %w", err)
	}

	creds := decodeCredentials([]byte(payload))
	s.setCurrent(creds)
	return cloneCredentials(creds), nil
}

// Set はバンドルを置き換える。単一行のUPSERTで永続化表現を上書きする。
func (s *SQLiteStore) Set(creds *model.Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("セッションのエンコードに失敗しました: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO session (id, payload) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET payload = excluded.payload`,
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("セッションレコードの書き込みに失敗しました: %w", err)
	}

	s.setCurrent(creds)
	return nil
}

// Clear はセッションレコードを削除する。行が存在しなくてもエラーにしない。
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("セッションレコードの削除に失敗しました: %w", err)
	}
	s.setCurrent(nil)
	return nil
}

// Current はメモリ上の現在のバンドルのスナップショットを返す。
func (s *SQLiteStore) Current() *model.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCredentials(s.current)
}

// CurrentRole は現在のユーザーのロールを返す。未認証なら空文字列。
func (s *SQLiteStore) CurrentRole() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.current.Valid() {
		return ""
	}
	return s.current.User.Role
}

func (s *SQLiteStore) setCurrent(creds *model.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = cloneCredentials(creds)
}
