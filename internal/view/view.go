// Package view は一覧表示向けのビューモデルを構築する。
// バックエンドから取得したエンティティは書き換えず、派生値（残日数、
// 期限超過フラグ）を付与したコピーを生成する。派生値は表示専用であり、
// バックエンドへ送り返すリクエストには含めない。
package view

import (
	"time"

	"github.com/hitoshi/taskdeck/internal/derive"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/pipeline"
	"github.com/hitoshi/taskdeck/internal/security"
)

// ProjectView はプロジェクトに派生値を付与した表示用モデル。
type ProjectView struct {
	model.Project
	RemainingDays int  `json:"remainingDays"`
	IsOverdue     bool `json:"isOverdue"`
}

// TaskView はタスクに派生値を付与した表示用モデル。
// 期限超過の判定はタスクの期日に対して行う。
type TaskView struct {
	model.Task
	RemainingDays int  `json:"remainingDays"`
	IsOverdue     bool `json:"isOverdue"`
}

// Builder はエンティティからビューモデルを構築する。
// バックエンド由来の説明文はサニタイザーを通してから表示に使う。
type Builder struct {
	sanitizer security.TextSanitizerService
}

// NewBuilder はBuilderを生成する。
func NewBuilder(sanitizer security.TextSanitizerService) *Builder {
	return &Builder{sanitizer: sanitizer}
}

// ProjectViews はプロジェクト一覧から表示用モデルを構築する。
func (b *Builder) ProjectViews(projects []model.Project, now time.Time) []ProjectView {
	views := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		p.Description = b.sanitizer.Sanitize(p.Description)
		views = append(views, ProjectView{
			Project:       p,
			RemainingDays: derive.RemainingDays(p.EndDate, now),
			IsOverdue:     derive.IsOverdue(p.EndDate, p.Status, now),
		})
	}
	return views
}

// TaskViews はタスク一覧から表示用モデルを構築する。
func (b *Builder) TaskViews(tasks []model.Task, now time.Time) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		t.Description = b.sanitizer.Sanitize(t.Description)
		views = append(views, TaskView{
			Task:          t,
			RemainingDays: derive.RemainingDays(t.DueDate, now),
			IsOverdue:     derive.IsOverdue(t.DueDate, t.Status, now),
		})
	}
	return views
}

// ProjectList はフィルタ→ソート→派生値付与の順で一覧を構築する。
// filterStatusが空の場合はフィルタなし。sortKeyは name / endDate / status
// のいずれかで、未知のキーはソートなしとして入力順を保つ。
func (b *Builder) ProjectList(projects []model.Project, filterStatus, sortKey string, now time.Time) []ProjectView {
	filtered := pipeline.Filter(projects, filterStatus, func(p model.Project) string { return p.Status })

	switch sortKey {
	case "name":
		filtered = pipeline.SortByKey(filtered, func(p model.Project) string { return p.Name }, false)
	case "endDate":
		filtered = pipeline.SortBy(filtered, func(a, b model.Project) bool { return a.EndDate.Before(b.EndDate) })
	case "status":
		filtered = pipeline.SortByKey(filtered, func(p model.Project) string { return p.Status }, false)
	}

	return b.ProjectViews(filtered, now)
}

// TaskList はフィルタ→ソート→派生値付与の順でタスク一覧を構築する。
// filterPriorityが空の場合はフィルタなし。sortKeyは title / dueDate /
// priority / status のいずれか。優先度はHigh→Medium→Lowの順に並ぶ。
func (b *Builder) TaskList(tasks []model.Task, filterPriority, sortKey string, now time.Time) []TaskView {
	filtered := pipeline.Filter(tasks, filterPriority, func(t model.Task) string { return t.Priority })

	switch sortKey {
	case "title":
		filtered = pipeline.SortByKey(filtered, func(t model.Task) string { return t.Title }, false)
	case "dueDate":
		filtered = pipeline.SortBy(filtered, func(a, b model.Task) bool { return a.DueDate.Before(b.DueDate) })
	case "priority":
		filtered = pipeline.SortBy(filtered, func(a, b model.Task) bool {
			return priorityRank(a.Priority) < priorityRank(b.Priority)
		})
	case "status":
		filtered = pipeline.SortByKey(filtered, func(t model.Task) string { return t.Status }, false)
	}

	return b.TaskViews(filtered, now)
}

// priorityRank は優先度を並び順に対応付ける。未知の値は末尾に回す。
func priorityRank(priority string) int {
	switch priority {
	case model.PriorityHigh:
		return 0
	case model.PriorityMedium:
		return 1
	case model.PriorityLow:
		return 2
	default:
		return 3
	}
}
