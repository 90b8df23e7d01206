package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

type analystPayload struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Online         bool    `json:"online"`
	Active         bool    `json:"active"`
	Categories     []int   `json:"categories"`
	CompletedToday int     `json:"completed_today"`
	LastAssignedAt *string `json:"last_assigned_at,omitempty"`
}

func newAnalystsCommand() *cobra.Command {
	analystsCmd := &cobra.Command{
		Use:   "analysts",
		Short: "Roster operations",
	}
	analystsCmd.AddCommand(
		newAnalystsListCommand(),
		newAnalystsCreateCommand(),
		newAnalystsDeleteCommand(),
	)
	return analystsCmd
}

func newAnalystsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the roster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			cli := newAPIClient(addr)

			var team []analystPayload
			if err := cli.get(cmd.Context(), "/api/analysts", &team); err != nil {
				return err
			}

			rows := make([][]string, 0, len(team))
			for _, a := range team {
				cats := make([]string, 0, len(a.Categories))
				for _, c := range a.Categories {
					cats = append(cats, strconv.Itoa(c))
				}
				rows = append(rows, []string{
					strconv.FormatInt(a.ID, 10),
					a.Name,
					onlineLabel(a.Online),
					strconv.FormatBool(a.Active),
					strings.Join(cats, ","),
					strconv.Itoa(a.CompletedToday),
				})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "NAME", "STATUS", "ACTIVE", "CATEGORIES", "DONE TODAY"}, rows, 1, 6))
			return nil
		},
	}
}

func newAnalystsCreateCommand() *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register an analyst",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")
			categories, _ := cmd.Flags().GetIntSlice("categories")
			cli := newAPIClient(addr)

			body := map[string]interface{}{
				"name":       name,
				"password":   password,
				"categories": categories,
			}
			var created analystPayload
			if err := cli.post(cmd.Context(), "/api/manager/analysts", body, &created); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created analyst %d (%s)\n", created.ID, created.Name)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Display name")
	createCmd.Flags().String("password", "", "Login password")
	createCmd.Flags().IntSlice("categories", nil, "Permitted category ids")
	return createCmd
}

func newAnalystsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an analyst and re-deal their desk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid analyst id %q", args[0])
			}
			cli := newAPIClient(addr)

			if err := cli.delete(cmd.Context(), "/api/manager/analysts/"+strconv.FormatInt(id, 10)); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted analyst %d\n", id)
			return nil
		},
	}
}
