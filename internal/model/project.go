package model

import "time"

// プロジェクトおよびタスクのステータス値。バックエンドのenumに対応する。
const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// Project はプロジェクトを表す。
// バックエンドから取得したレコードであり、クライアント側で書き換えない。
// 派生値（残日数、期限超過フラグ）はviewパッケージが別のコピーとして生成する。
type Project struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Budget      float64   `json:"budget,omitempty"`
	TeamMembers []string  `json:"teamMembers,omitempty"`
}

// タスクの優先度値。
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Task はタスクを表す。
type Task struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	DueDate     time.Time `json:"dueDate"`
	ProjectID   string    `json:"projectId,omitempty"`
	AssignedTo  string    `json:"assignedTo,omitempty"`
}

// Team はチームを表す。
type Team struct {
	ID      string   `json:"_id"`
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}
