package api

import (
	"time"

	service "github.com/okian/fila/internal/app"
	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/model"
)

// View types mirror the OpenAPI response schemas.

type analystView struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Online         bool          `json:"online"`
	Active         bool          `json:"active"`
	Categories     []category.ID `json:"categories"`
	CompletedToday int           `json:"completed_today"`
	LastAssignedAt *string       `json:"last_assigned_at,omitempty"`
}

type assignmentView struct {
	CaseID        string      `json:"case_id"`
	AnalystID     int64       `json:"analyst_id"`
	Category      category.ID `json:"category"`
	CategoryLabel string      `json:"category_label"`
	Client        string      `json:"client"`
	Project       string      `json:"project"`
	Unit          string      `json:"unit"`
	AssignedAt    string      `json:"assigned_at"`
}

type historyView struct {
	CaseID      string `json:"case_id"`
	AnalystID   int64  `json:"analyst_id"`
	AnalystName string `json:"analyst_name"`
	Client      string `json:"client"`
	Outcome     string `json:"outcome"`
	ClosedAt    string `json:"closed_at"`
}

type categoryView struct {
	ID         category.ID `json:"id"`
	Label      string      `json:"label"`
	Text       string      `json:"text_color"`
	Background string      `json:"background_color"`
}

type tallyView struct {
	OnDesk         int `json:"on_desk"`
	CompletedToday int `json:"completed_today"`
}

type overviewView struct {
	GeneratedAt     string              `json:"generated_at"`
	Team            []analystView       `json:"team"`
	Open            []assignmentView    `json:"open"`
	RecentClosed    []historyView       `json:"recent_closed"`
	ExternalPending int                 `json:"external_pending"`
	Breakdown       map[category.ID]int `json:"breakdown"`
	PerAnalyst      map[int64]tallyView `json:"per_analyst"`
	SnapshotState   string              `json:"snapshot_state"`
	LastSyncAt      string              `json:"last_sync_at,omitempty"`
	LastSyncError   string              `json:"last_sync_error,omitempty"`
}

func analystViewOf(w model.Worker) analystView {
	v := analystView{
		ID:             w.ID,
		Name:           w.Name,
		Online:         w.Online,
		Active:         w.Active,
		Categories:     w.Permitted,
		CompletedToday: w.CompletedToday,
	}
	if v.Categories == nil {
		v.Categories = []category.ID{}
	}
	if w.LastAssignedAt != nil {
		ts := w.LastAssignedAt.Format(time.RFC3339)
		v.LastAssignedAt = &ts
	}
	return v
}

func analystViewsOf(workers []model.Worker) []analystView {
	views := make([]analystView, len(workers))
	for i, w := range workers {
		views[i] = analystViewOf(w)
	}
	return views
}

func assignmentViewOf(a model.Assignment) assignmentView {
	return assignmentView{
		CaseID:        a.CaseID,
		AnalystID:     a.WorkerID,
		Category:      a.CategoryID,
		CategoryLabel: a.CategoryLabel,
		Client:        a.Client,
		Project:       a.Project,
		Unit:          a.Unit,
		AssignedAt:    a.AssignedAt.Format(time.RFC3339),
	}
}

func assignmentViewsOf(assignments []model.Assignment) []assignmentView {
	views := make([]assignmentView, len(assignments))
	for i, a := range assignments {
		views[i] = assignmentViewOf(a)
	}
	return views
}

func historyViewOf(e model.HistoryEntry) historyView {
	return historyView{
		CaseID:      e.CaseID,
		AnalystID:   e.WorkerID,
		AnalystName: e.WorkerName,
		Client:      e.Client,
		Outcome:     e.Outcome,
		ClosedAt:    e.ClosedAt.Format(time.RFC3339),
	}
}

func historyViewsOf(entries []model.HistoryEntry) []historyView {
	views := make([]historyView, len(entries))
	for i, e := range entries {
		views[i] = historyViewOf(e)
	}
	return views
}

func overviewViewOf(o service.Overview) overviewView {
	v := overviewView{
		GeneratedAt:     o.GeneratedAt.Format(time.RFC3339),
		Team:            analystViewsOf(o.Team),
		Open:            assignmentViewsOf(o.Open),
		RecentClosed:    historyViewsOf(o.RecentClosed),
		ExternalPending: o.ExternalPending,
		Breakdown:       o.Stats.Breakdown,
		PerAnalyst:      make(map[int64]tallyView, len(o.Stats.PerWorker)),
		SnapshotState:   o.SnapshotState,
		LastSyncError:   o.LastSyncError,
	}
	for id, t := range o.Stats.PerWorker {
		v.PerAnalyst[id] = tallyView{OnDesk: t.OnDesk, CompletedToday: t.CompletedToday}
	}
	if !o.LastSyncAt.IsZero() {
		v.LastSyncAt = o.LastSyncAt.Format(time.RFC3339)
	}
	return v
}
