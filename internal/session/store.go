// Package session はcredentialバンドルのローカル永続化とライフサイクルを提供する。
// バンドルはログイン時に設定され、トークンリフレッシュ時にローテーションされ、
// ログアウト時に破棄される。永続化されたレコードがセッション状態の唯一の
// 外部表現であり、レコードの喪失はログアウトと同義である。
package session

import (
	"encoding/json"

	"github.com/hitoshi/taskdeck/internal/model"
)

// Store はセッションストアのインターフェース。
// Set/Clearはアトミックに適用され、読み手が部分更新されたバンドルを
// 観測することはない。
type Store interface {
	// Load は永続化されたバンドルを読み込み、メモリ上の現在値として採用する。
	// レコードが存在しない、または構造的に無効（トークン欠落）な場合は
	// (nil, nil) を返す。ネットワークアクセスは行わない。
	Load() (*model.Credentials, error)

	// Set はバンドルをアトミックに置き換え、永続化表現を上書きする。
	Set(creds *model.Credentials) error

	// Clear はバンドルと永続化表現を削除する。冪等であり、
	// 以後のLoadは (nil, nil) を返す。
	Clear() error

	// Current はメモリ上の現在のバンドルのスナップショットを返す。
	// 未認証の場合はnilを返す。
	Current() *model.Credentials

	// CurrentRole は現在のユーザーのロールを返す。
	// 未認証の場合は空文字列を返し、呼び出し側は権限を要する操作を
	// 一切許可してはならない。
	CurrentRole() string
}

// decodeCredentials は永続化レコードのバイト列をバンドルに復元する。
// JSONとして不正、またはトークンを欠く場合はnilを返す。
// 壊れたレコードはエラーではなく未認証として扱う。
func decodeCredentials(raw []byte) *model.Credentials {
	var creds model.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil
	}
	if !creds.Valid() {
		return nil
	}
	return &creds
}

// cloneCredentials はバンドルのコピーを返す。
// 呼び出し側の書き換えがストア内部の状態に波及しないようにする。
func cloneCredentials(creds *model.Credentials) *model.Credentials {
	if creds == nil {
		return nil
	}
	c := *creds
	return &c
}
