package model

import "time"

// 通知種別。
const (
	NotifySuccess = "success"
	NotifyError   = "error"
	NotifyInfo    = "info"
)

// Notification はUIに一時表示される通知を表す。
// 明示的な破棄（Remove）またはTTL経過による自動失効のいずれかで消滅する。
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}
