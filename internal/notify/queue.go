// Package notify は一時的なUI通知のキューと自動失効処理を提供する。
// キューはプロセス全体で共有され、アプリケーションの稼働期間と
// ライフサイクルを共にする。
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskdeck/internal/model"
)

// Queue は時刻順の通知コレクション。
// 変更は追加と削除のみで、要素のin-place編集は行わない。
type Queue struct {
	mu    sync.Mutex
	items []model.Notification

	now func() time.Time // テスト用に差し替え可能
}

// NewQueue は空のQueueを生成する。
func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// Add は通知を末尾に追加し、追加されたレコードを返す。
// IDは作成時に付与され、CreatedAtは現在時刻となる。挿入順は保存される。
func (q *Queue) Add(message, kind string) model.Notification {
	n := model.Notification{
		ID:        uuid.New().String(),
		Message:   message,
		Kind:      kind,
		CreatedAt: q.now(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
	return n
}

// Remove はIDが一致する通知を削除する。
// 既に存在しない場合は何もしない（冪等）。
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.items {
		if q.items[i].ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// List は現在の通知のスナップショットコピーを挿入順で返す。
func (q *Queue) List() []model.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := make([]model.Notification, len(q.items))
	copy(snapshot, q.items)
	return snapshot
}

// Len は現在の通知数を返す。
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// expire は経過時間がttl以上の通知をすべて削除し、削除数を返す。
// Sweeperのティックごとに呼ばれる。
func (q *Queue) expire(now time.Time, ttl time.Duration) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	expired := 0
	for _, n := range q.items {
		if now.Sub(n.CreatedAt) >= ttl {
			expired++
			continue
		}
		kept = append(kept, n)
	}
	q.items = kept
	return expired
}
