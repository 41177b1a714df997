package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/qa-forum/frontend/internal/model/forum"
)

func init() {
	rootCmd.AddCommand(askCmd, replyCmd, statusCmd)
}

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Post a new question",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		q, err := a.synchronizer(false).SubmitQuestion(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return userError(err, forum.MsgSubmitFailed)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "posted question #%s\n", q.ID)
		return nil
	},
}

var replyCmd = &cobra.Command{
	Use:   "reply <question-id> <reply...>",
	Short: "Reply to a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		id := forum.ID(args[0])
		if err := a.synchronizer(false).SubmitReply(cmd.Context(), id, strings.Join(args[1:], " ")); err != nil {
			return userError(err, forum.MsgReplyFailed)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "replied to #%s\n", id)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:       "status <question-id> <Pending|Escalated|Answered>",
	Short:     "Escalate or resolve a question (logged-in users only)",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(forum.StatusPending), string(forum.StatusEscalated), string(forum.StatusAnswered)},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.accounts.Current(cmd.Context())
		if err != nil {
			return err
		}
		if user == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "not logged in, nothing changed")
			return nil
		}

		id, status := forum.ID(args[0]), forum.Status(args[1])
		if err := a.synchronizer(false).SetStatus(cmd.Context(), id, status); err != nil {
			return userError(err, forum.MsgStatusFailed)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "requested #%s -> %s\n", id, status)
		return nil
	},
}

// userError turns a failure into the message a user should see while
// keeping the original error reachable through errors.As.
func userError(err error, fallback string) error {
	return &displayError{msg: forum.UserMessage(err, fallback), err: err}
}

type displayError struct {
	msg string
	err error
}

func (e *displayError) Error() string { return e.msg }

func (e *displayError) Unwrap() error { return e.err }
