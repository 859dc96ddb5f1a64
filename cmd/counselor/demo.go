package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/suPer8Hu/career-counselor/internal/chat"
)

const demoPrompt = "How do I negotiate salary for a new role?"

func newDemoCmd(opts *rootOptions) *cobra.Command {
	var delay time.Duration
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted conversation against the seeded sessions and print the sidebar",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.SeedFixtures = true
			if cmd.Flags().Changed("delay") {
				cfg.ReplyDelay = delay
			}

			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			return runDemo(cmd.Context(), a.chat, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", chat.DefaultReplyDelay, "reply delay")
	return cmd
}

func runDemo(ctx context.Context, svc *chat.Service, out io.Writer) error {
	sess, err := svc.CreateSession()
	if err != nil {
		return err
	}
	msg, reply, err := svc.SendMessage(ctx, sess.ID, demoPrompt)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "you: %s\n", msg.Content)
	fmt.Fprintln(out, "assistant is typing...")

	select {
	case <-reply.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if reply.Status() != chat.ReplyDelivered {
		return errors.Errorf("reply %s ended %s", reply.ID, reply.Status())
	}
	answer, _ := reply.Message()
	fmt.Fprintf(out, "assistant: %s\n\n", answer.Content)

	// a reply is never delivered into a deleted session
	doomed, err := svc.CreateSession()
	if err != nil {
		return err
	}
	_, pending, err := svc.SendMessage(ctx, doomed.ID, "Is it too late to switch careers?")
	if err != nil {
		return err
	}
	svc.DeleteSession(doomed.ID)
	<-pending.Done()
	fmt.Fprintf(out, "reply for deleted session: %s\n\n", pending.Status())

	now := time.Now()
	printSidebar(out, svc.Sidebar("", now), now)
	return nil
}

func printSidebar(out io.Writer, sb chat.Sidebar, now time.Time) {
	sections := []struct {
		name     string
		sessions []chat.Session
	}{
		{"Today", sb.Groups.Today},
		{"Yesterday", sb.Groups.Yesterday},
		{"This week", sb.Groups.ThisWeek},
		{"Older", sb.Groups.Older},
	}
	fmt.Fprintf(out, "%d sessions\n", sb.Total)
	for _, sec := range sections {
		if len(sec.sessions) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s\n", sec.name)
		for _, s := range sec.sessions {
			marker := " "
			if s.ID == sb.ActiveID {
				marker = "*"
			}
			fmt.Fprintf(out, " %s %-32s %-16s %2d msgs  %s\n",
				marker, s.Title, chat.CategoryLabel(s.Category), s.MessageCount, chat.RelativeTime(s.Timestamp, now))
		}
	}
}
