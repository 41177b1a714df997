package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/qa-forum/frontend/internal/model/forum"
	forumService "github.com/zhouzirui/qa-forum/frontend/internal/service/forum"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the forum live in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sync := a.synchronizer(true)
		changes, cancel := sync.Subscribe()
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- sync.Run(ctx)
		}()

		out := cmd.OutOrStdout()
		for {
			select {
			case err := <-done:
				return err
			case <-changes:
				renderView(out, sync.View())
			}
		}
	},
}

// renderView prints the whole list; the screen is cleared first.
func renderView(w io.Writer, view forumService.View) {
	var b strings.Builder
	b.WriteString("\033[H\033[2J")
	fmt.Fprintf(&b, "Q&A Forum  [%s]\n\n", view.Connection)

	if view.ConnectionLost {
		fmt.Fprintf(&b, "!! %s\n\n", forum.MsgConnectionLost)
	}
	if view.Error != "" {
		fmt.Fprintf(&b, "error: %s\n\n", view.Error)
	}

	switch {
	case view.Loading:
		b.WriteString("Loading...\n")
	case len(view.Questions) == 0:
		b.WriteString("No questions yet.\n")
	default:
		for _, q := range view.Questions {
			writeQuestion(&b, q)
		}
	}
	io.WriteString(w, b.String())
}

func writeQuestion(b *strings.Builder, q forum.Question) {
	fmt.Fprintf(b, "#%s  %-9s  %s\n", q.ID, q.Status, q.Timestamp.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(b, "    %s\n", q.Message)
	for _, r := range q.Replies {
		fmt.Fprintf(b, "      > %s\n", r.Message)
	}
	b.WriteString("\n")
}
