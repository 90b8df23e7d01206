package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRedistributeCommand() *cobra.Command {
	redistributeCmd := &cobra.Command{
		Use:   "redistribute",
		Short: "Clear every desk and re-deal all pending folders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			requestID, _ := cmd.Flags().GetString("request-id")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			cli := newAPIClient(addr)

			body := map[string]string{"request_id": requestID}
			if err := cli.post(cmd.Context(), "/api/manager/redistribute", body, nil); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "redistribution finished")
			return nil
		},
	}
	redistributeCmd.Flags().String("request-id", "", "Duplicate-submission guard; generated when empty")
	return redistributeCmd
}
