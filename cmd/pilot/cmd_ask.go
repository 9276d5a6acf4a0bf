package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// askCmd answers a single question and exits. If the question routes to a
// command, the user is prompted to approve it on the spot.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question",
	Long: `Routes one natural language question through the pipeline and prints
the answer. A question that proposes a shell command prompts for approval
before anything runs; declining (or a non-interactive session) leaves the
command unexecuted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sess, err := buildSession(ctx, cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		query := strings.Join(args, " ")
		resp := sess.agent.HandleQuery(ctx, query)
		fmt.Println(resp.Text)

		if resp.Approval == nil {
			return nil
		}

		fmt.Printf("Approve %q? [y/N] ", resp.Approval.Command)
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() || !isYes(scanner.Text()) {
			rejected, err := sess.agent.Reject(resp.Approval.CommandID)
			if err != nil {
				return err
			}
			fmt.Printf("Rejected %s. It will not run.\n", rejected.CommandID)
			return nil
		}

		result, err := sess.agent.Approve(ctx, resp.Approval.CommandID)
		if err != nil {
			return err
		}
		printCommandResult(result)
		return nil
	},
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}
