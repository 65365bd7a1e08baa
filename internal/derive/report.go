package derive

import (
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskdeck/internal/model"
)

// Recompute はレポートの計算フィールドを入力フィールドから導出し直す。
// どちらの入力オペランドが変更された場合でも呼び出すことで、
// 計算フィールドが常に現在の入力の純粋な関数であることを保証する。
// 計算フィールドを単独で編集する経路は存在しない。
func Recompute(data *model.ReportData, reportType string) {
	if data == nil {
		return
	}

	switch reportType {
	case model.ReportProgress:
		data.ProgressPercentage, data.RemainingTasks = ProgressMetrics(data.TotalTasks, data.CompletedTasks)
	case model.ReportBudgetUtilization:
		data.RemainingBudget, data.UtilizationPercentage = BudgetMetrics(data.TotalBudget, data.SpentToDate)
	}
}

// AddMilestone はマイルストーンを末尾に追加し、追加されたレコードを返す。
// 作成時に合成IDを付与し、以後の編集・削除はこのIDで行う。
// 位置インデックスによるアドレッシングは、先頭側の削除が後続エントリを
// 再ラベルしてしまうため使用しない。
func AddMilestone(data *model.ReportData, title string, date time.Time, status string) model.Milestone {
	m := model.Milestone{
		ID:     uuid.New().String(),
		Title:  title,
		Date:   date,
		Status: status,
	}
	data.Milestones = append(data.Milestones, m)
	return m
}

// UpdateMilestone はIDが一致するマイルストーンを置き換える。
// 見つかった場合はtrueを返す。
func UpdateMilestone(data *model.ReportData, m model.Milestone) bool {
	for i := range data.Milestones {
		if data.Milestones[i].ID == m.ID {
			data.Milestones[i] = m
			return true
		}
	}
	return false
}

// RemoveMilestone はIDが一致するマイルストーンを削除する。
// 見つかった場合はtrueを返す。残りのエントリのIDは変化しない。
func RemoveMilestone(data *model.ReportData, id string) bool {
	for i := range data.Milestones {
		if data.Milestones[i].ID == id {
			data.Milestones = append(data.Milestones[:i], data.Milestones[i+1:]...)
			return true
		}
	}
	return false
}

// AddExpense は支出レコードを末尾に追加し、追加されたレコードを返す。
func AddExpense(data *model.ReportData, description string, amount float64, date string) model.Expense {
	e := model.Expense{
		ID:          uuid.New().String(),
		Description: description,
		Amount:      amount,
		Date:        date,
	}
	data.Expenses = append(data.Expenses, e)
	return e
}

// UpdateExpense はIDが一致する支出レコードを置き換える。
func UpdateExpense(data *model.ReportData, e model.Expense) bool {
	for i := range data.Expenses {
		if data.Expenses[i].ID == e.ID {
			data.Expenses[i] = e
			return true
		}
	}
	return false
}

// RemoveExpense はIDが一致する支出レコードを削除する。
func RemoveExpense(data *model.ReportData, id string) bool {
	for i := range data.Expenses {
		if data.Expenses[i].ID == id {
			data.Expenses = append(data.Expenses[:i], data.Expenses[i+1:]...)
			return true
		}
	}
	return false
}
