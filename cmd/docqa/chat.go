package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	sess, _, err := newSession(ctx, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	status := sess.Status(ctx)
	if !status.System.Ready {
		fmt.Println("No documents indexed yet. Run 'docqa ingest' first.")
	}
	fmt.Println("Ask a question, or /history, /clear, /info, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil
		case "/clear":
			sess.ClearMemory()
			fmt.Println("Conversation memory cleared")
			continue
		case "/history":
			for _, turn := range sess.History() {
				fmt.Printf("%s: %s\n", turn.Role, turn.Content)
			}
			continue
		case "/info":
			info := sess.Status(ctx).System
			fmt.Printf("model=%s store=%s chunks=%d history=%d ready=%v\n",
				info.Model, info.StoreStatus, info.DocumentCount, info.HistoryLength, info.Ready)
			continue
		}

		result := sess.Ask(ctx, line)
		fmt.Println()
		fmt.Println(result.Answer)
		if result.Succeeded {
			for _, source := range result.Sources {
				fmt.Printf("  [%s] %s\n", source.Metadata.Source, source.Content)
			}
			fmt.Printf("  (retrieval %s, generation %s, total %s)\n",
				formatDuration(result.Metrics.Retrieval),
				formatDuration(result.Metrics.Generation),
				formatDuration(result.Metrics.Total))
		}
		fmt.Println()
	}
}

// formatDuration renders timings in the most readable unit.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
