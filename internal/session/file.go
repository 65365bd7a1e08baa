package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hitoshi/taskdeck/internal/model"
)

// FileStore は単一のJSONファイルにバンドルを永続化するStore実装。
// ブラウザのローカルストレージに相当する役割を果たす。
// 書き込みは一時ファイルへの書き出しとrenameによりアトミックに行う。
type FileStore struct {
	path string

	mu      sync.RWMutex
	current *model.Credentials
}

// NewFileStore はFileStoreを生成する。ファイルの読み込みはLoadまで行わない。
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load はセッションファイルを読み込む。
// ファイルが存在しない、または内容が無効な場合は (nil, nil) を返す。
func (s *FileStore) Load() (*model.Credentials, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.setCurrent(nil)
			return nil, nil
		}
		return nil, fmt.Errorf("セッションファイルの読み込みに失敗しました: %w", err)
	}

	creds := decodeCredentials(raw)
	s.setCurrent(creds)
	return cloneCredentials(creds), nil
}

// Set はバンドルを置き換え、ファイルに書き出す。
func (s *FileStore) Set(creds *model.Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("セッションのエンコードに失敗しました: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("セッションディレクトリの作成に失敗しました: %w", err)
	}

	// 一時ファイルに書いてからrenameすることで、読み手が
	// 書きかけのレコードを観測しないようにする。
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("セッションファイルの書き込みに失敗しました: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("セッションファイルの置き換えに失敗しました: %w", err)
	}

	s.setCurrent(creds)
	return nil
}

// Clear はセッションファイルを削除する。ファイルが存在しなくてもエラーにしない。
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("セッションファイルの削除に失敗しました: %w", err)
	}
	s.setCurrent(nil)
	return nil
}

// Current はメモリ上の現在のバンドルのスナップショットを返す。
func (s *FileStore) Current() *model.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCredentials(s.current)
}

// CurrentRole は現在のユーザーのロールを返す。未認証なら空文字列。
func (s *FileStore) CurrentRole() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.current.Valid() {
		return ""
	}
	return s.current.User.Role
}

func (s *FileStore) setCurrent(creds *model.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = cloneCredentials(creds)
}
