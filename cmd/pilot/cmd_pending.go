package main

import (
	"github.com/spf13/cobra"
)

// pendingCmd shows the approval queue for a fresh session. The store is
// in-memory, so outside the interactive session this is mostly useful for
// verifying the wiring; it exists so the queue surface has a CLI entry.
var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List commands waiting for approval",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := buildSession(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		printPending(sess.agent)
		return nil
	},
}
