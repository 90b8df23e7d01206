package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type overviewPayload struct {
	GeneratedAt     string           `json:"generated_at"`
	Team            []analystPayload `json:"team"`
	Open            []openPayload    `json:"open"`
	ExternalPending int              `json:"external_pending"`
	Breakdown       map[string]int   `json:"breakdown"`
	PerAnalyst      map[string]tally `json:"per_analyst"`
	SnapshotState   string           `json:"snapshot_state"`
	LastSyncAt      string           `json:"last_sync_at,omitempty"`
	LastSyncError   string           `json:"last_sync_error,omitempty"`
}

type openPayload struct {
	CaseID        string `json:"case_id"`
	AnalystID     int64  `json:"analyst_id"`
	CategoryLabel string `json:"category_label"`
	Client        string `json:"client"`
	AssignedAt    string `json:"assigned_at"`
}

type tally struct {
	OnDesk         int `json:"on_desk"`
	CompletedToday int `json:"completed_today"`
}

func newOverviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show the global distribution picture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			cli := newAPIClient(addr)

			var ov overviewPayload
			if err := cli.get(cmd.Context(), "/api/manager/overview", &ov); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "generated: %s  snapshot: %s  external pending: %d\n",
				ov.GeneratedAt, ov.SnapshotState, ov.ExternalPending)
			if ov.LastSyncError != "" {
				_, _ = fmt.Fprintf(out, "last sync error: %s\n", ov.LastSyncError)
			}

			names := make(map[int64]string, len(ov.Team))
			rows := make([][]string, 0, len(ov.Team))
			for _, a := range ov.Team {
				names[a.ID] = a.Name
				t := ov.PerAnalyst[strconv.FormatInt(a.ID, 10)]
				rows = append(rows, []string{
					strconv.FormatInt(a.ID, 10),
					a.Name,
					onlineLabel(a.Online),
					strconv.Itoa(t.OnDesk),
					strconv.Itoa(t.CompletedToday),
				})
			}
			_, _ = fmt.Fprintln(out, renderTable(
				[]string{"ID", "NAME", "STATUS", "ON DESK", "DONE TODAY"}, rows, 1, 4, 5))

			open := make([][]string, 0, len(ov.Open))
			for _, o := range ov.Open {
				open = append(open, []string{
					o.CaseID, names[o.AnalystID], o.CategoryLabel, o.Client, o.AssignedAt,
				})
			}
			_, _ = fmt.Fprintln(out, renderTable(
				[]string{"CASE", "ANALYST", "CATEGORY", "CLIENT", "ASSIGNED"}, open))
			return nil
		},
	}
}

func onlineLabel(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}
