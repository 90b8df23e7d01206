package loadtest

import "time"

// Config holds configuration for the distribution exercise
type Config struct {
	BaseURL     string        // Base URL of the service
	NumAnalysts int           // Number of analysts to seed
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
	KeepSeeded  bool          // Leave seeded analysts in place after the run
}

// Analyst mirrors the roster payload of the service
type Analyst struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Online         bool   `json:"online"`
	Active         bool   `json:"active"`
	Categories     []int  `json:"categories"`
	CompletedToday int    `json:"completed_today"`
}

// Assignment mirrors an open folder in the overview payload
type Assignment struct {
	CaseID        string `json:"case_id"`
	AnalystID     int64  `json:"analyst_id"`
	Category      int    `json:"category"`
	CategoryLabel string `json:"category_label"`
	Client        string `json:"client"`
	AssignedAt    string `json:"assigned_at"`
}

// Tally mirrors the per-analyst counters of the overview payload
type Tally struct {
	OnDesk         int `json:"on_desk"`
	CompletedToday int `json:"completed_today"`
}

// Overview mirrors the manager overview payload
type Overview struct {
	GeneratedAt     string           `json:"generated_at"`
	Team            []Analyst        `json:"team"`
	Open            []Assignment     `json:"open"`
	ExternalPending int              `json:"external_pending"`
	Breakdown       map[string]int   `json:"breakdown"`
	PerAnalyst      map[string]Tally `json:"per_analyst"`
	SnapshotState   string           `json:"snapshot_state"`
	LastSyncError   string           `json:"last_sync_error,omitempty"`
}

// QueueStatus mirrors the per-analyst queue position payload
type QueueStatus struct {
	AnalystID int64          `json:"analyst_id"`
	Positions map[string]int `json:"positions"`
}

// Stats holds exercise statistics
type Stats struct {
	AnalystsSeeded       int
	FoldersObserved      int
	CompletionsSubmitted int
	CompletionsOK        int
	CompletionsDuplicate int
	CompletionsFailed    int
	ChecksPassed         int
	ChecksFailed         int
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}
