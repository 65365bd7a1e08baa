package model

import "time"

// レポート種別。バックエンドのtypeフィールドに対応する。
const (
	ReportProgress          = "Progress"
	ReportTaskCompletion    = "TaskCompletion"
	ReportTimeline          = "Timeline"
	ReportBudgetUtilization = "BudgetUtilization"
)

// Report はプロジェクトに紐づくレポートを表す。
type Report struct {
	ID          string     `json:"_id"`
	ProjectID   string     `json:"projectId"`
	Type        string     `json:"type"`
	GeneratedAt string     `json:"generatedAt,omitempty"`
	Data        ReportData `json:"data"`
}

// ReportData はレポート種別ごとの入力フィールドと計算フィールドを保持する。
// 計算フィールド（ProgressPercentage, RemainingTasks, RemainingBudget,
// UtilizationPercentage）は常に入力フィールドからの純粋な導出値であり、
// 単独で編集してはならない。再計算はderiveパッケージのRecomputeが行う。
//
// 数値フィールドはバックエンドが文字列や数値を混在して返すことがあるため
// any型で受け、derive.Numで寛容に解釈する。
type ReportData struct {
	// Progress
	TotalTasks         any `json:"totalTasks,omitempty"`
	CompletedTasks     any `json:"completedTasks,omitempty"`
	ProgressPercentage int `json:"progressPercentage,omitempty"`
	RemainingTasks     int `json:"remainingTasks,omitempty"`

	// TaskCompletion
	TaskID         string `json:"taskId,omitempty"`
	CompletedDate  string `json:"completedDate,omitempty"`
	TotalCompleted any    `json:"totalCompleted,omitempty"`

	// Timeline
	ProjectStartDate string      `json:"projectStartDate,omitempty"`
	ProjectEndDate   string      `json:"projectEndDate,omitempty"`
	Milestones       []Milestone `json:"milestones,omitempty"`

	// BudgetUtilization
	TotalBudget           any       `json:"totalBudget,omitempty"`
	SpentToDate           any       `json:"spentToDate,omitempty"`
	RemainingBudget       float64   `json:"remainingBudget,omitempty"`
	UtilizationPercentage int       `json:"utilizationPercentage,omitempty"`
	Expenses              []Expense `json:"expenses,omitempty"`

	GeneratedAt string `json:"generatedAt,omitempty"`
}

// Milestone はTimelineレポート内の繰り返しサブレコードを表す。
// IDは作成時にクライアントが付与する合成IDで、位置ではなくIDで
// 編集・削除を行う。削除が無関係なエントリを再ラベルすることはない。
type Milestone struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
}

// Expense はBudgetUtilizationレポート内の支出サブレコードを表す。
type Expense struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date,omitempty"`
}
