package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"datapilot/internal/agent"
)

const interactiveHelp = `Ask a question, or use a command:
  pending           list commands waiting for approval
  approve <id>      run a pending command
  reject <id>       discard a pending command
  help              show this message
  exit              leave the session`

// runInteractive reads queries and approval decisions from stdin until EOF
// or an exit command.
func runInteractive(ctx context.Context) error {
	sess, err := buildSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Println("datapilot interactive session. Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch strings.ToLower(fields[0]) {
		case "exit", "quit":
			return scanner.Err()

		case "help":
			fmt.Println(interactiveHelp)

		case "pending":
			printPending(sess.agent)

		case "approve":
			if len(fields) != 2 {
				fmt.Println("usage: approve <id>")
				continue
			}
			result, err := sess.agent.Approve(ctx, fields[1])
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			printCommandResult(result)

		case "reject":
			if len(fields) != 2 {
				fmt.Println("usage: reject <id>")
				continue
			}
			rejected, err := sess.agent.Reject(fields[1])
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			fmt.Printf("Rejected %s (%s). It will not run.\n", rejected.CommandID, rejected.Command)

		default:
			resp := sess.agent.HandleQuery(ctx, line)
			fmt.Println(resp.Text)
		}
	}

	return scanner.Err()
}

func printPending(a *agent.Agent) {
	pending := a.Pending()
	if len(pending) == 0 {
		fmt.Println("No commands are waiting for approval.")
		return
	}
	for _, p := range pending {
		fmt.Printf("  %s  %s  (%s)\n", p.ID, p.Command, p.Description)
	}
}

func printCommandResult(result *agent.CommandResult) {
	if !result.Success {
		fmt.Printf("Command %q failed: %s\n", result.Command, result.Error)
		if result.Output != "" {
			fmt.Println(result.Output)
		}
		return
	}
	if result.Output != "" {
		fmt.Print(result.Output)
		if !strings.HasSuffix(result.Output, "\n") {
			fmt.Println()
		}
	}
	for _, w := range result.Warnings {
		fmt.Println("warning:", w)
	}
}
