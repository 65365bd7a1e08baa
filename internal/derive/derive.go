// Package derive はエンティティから表示用の派生値を計算する純粋関数群を提供する。
// すべての関数は決定的で副作用を持たず、基準時刻は常に引数で受け取る。
package derive

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// RemainingDays は終了日までの残日数を返す。
// ceil((endDate - now) / 24h) を0で下限クランプする。
// 終了日が過去または当日の場合は0を返し、負値になることはない。
func RemainingDays(endDate, now time.Time) int {
	days := int(math.Ceil(endDate.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// IsOverdue は期限超過かどうかを返す。
// 終了日が過去で、かつステータスがCompletedでない場合にtrue。
func IsOverdue(endDate time.Time, status string, now time.Time) bool {
	return endDate.Before(now) && status != "Completed"
}

// Num は数値らしき値をfloat64として寛容に解釈する。
// バックエンドやフォーム入力は数値・文字列・json.Numberを混在して
// 返すことがあるため、解釈できない値はエラーにせず0に落とす。
func Num(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// ProgressMetrics はProgressレポートの計算フィールドを導出する。
// percentage = round(100 * completed / total)（total > 0のとき、それ以外は0）。
// remaining = total - completed。入力が不整合（completed > total）でも
// クランプせず、そのまま通す。
func ProgressMetrics(totalTasks, completedTasks any) (percentage int, remaining int) {
	total := Num(totalTasks)
	completed := Num(completedTasks)

	if total > 0 {
		percentage = int(math.Round(100 * completed / total))
	}
	remaining = int(total) - int(completed)
	return percentage, remaining
}

// BudgetMetrics はBudgetUtilizationレポートの計算フィールドを導出する。
// remaining = totalBudget - spentToDate。
// utilization = round(100 * spent / total)（total > 0のとき、それ以外は0）。
func BudgetMetrics(totalBudget, spentToDate any) (remaining float64, utilization int) {
	total := Num(totalBudget)
	spent := Num(spentToDate)

	remaining = total - spent
	if total > 0 {
		utilization = int(math.Round(100 * spent / total))
	}
	return remaining, utilization
}
