package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rhuss/outings/pkg/api"
)

func newAskCommand() *cobra.Command {
	var model string
	var showTools bool
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send a single message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().Chat(cmd.Context(), api.ChatRequest{
				Message: strings.Join(args, " "),
				UserID:  userID,
				Model:   model,
			})
			if err != nil {
				return err
			}
			printReply(cmd.OutOrStdout(), resp, showTools)
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "model override")
	cmd.Flags().BoolVar(&showTools, "tools", false, "print tool results")
	return cmd
}

func newChatCommand() *cobra.Command {
	var model string
	var showTools, save bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: "Start an interactive conversation. Type /reset to start over, " +
			"/exit or Ctrl-D to quit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runChat(ctx, client(), cmd.InOrStdin(), cmd.OutOrStdout(), model, showTools, save)
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "model override")
	cmd.Flags().BoolVar(&showTools, "tools", false, "print tool results")
	cmd.Flags().BoolVar(&save, "save", false, "save the transcript to chat history on exit")
	return cmd
}

func runChat(ctx context.Context, c *Client, in io.Reader, out io.Writer, model string, showTools, save bool) error {
	var transcript []api.HistoryMessage
	defer func() {
		if !save || len(transcript) == 0 {
			return
		}
		entry, err := c.SaveHistory(context.WithoutCancel(ctx), api.HistorySave{Messages: transcript})
		if err != nil {
			fmt.Fprintf(out, "could not save transcript: %v\n", err)
			return
		}
		fmt.Fprintf(out, "saved as %s (%q)\n", entry.ID, entry.Title)
	}()

	fmt.Fprintln(out, "Ask for activity ideas. /reset starts over, /exit quits.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			if err := c.Reset(ctx, userID); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			transcript = nil
			fmt.Fprintln(out, "conversation reset")
			continue
		}

		resp, err := c.Chat(ctx, api.ChatRequest{Message: line, UserID: userID, Model: model})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		transcript = append(transcript,
			api.HistoryMessage{Role: "user", Content: line},
			api.HistoryMessage{Role: "assistant", Content: resp.Response},
		)
		printReply(out, resp, showTools)
	}
}

func printReply(out io.Writer, resp *api.ChatResponse, showTools bool) {
	fmt.Fprintln(out, resp.Response)
	if resp.SkippedToolsMessage != nil {
		fmt.Fprintf(out, "\n(%s)\n", *resp.SkippedToolsMessage)
	}
	if !showTools {
		return
	}
	for _, tr := range resp.ToolResults {
		data, err := json.MarshalIndent(tr.Result, "  ", "  ")
		if err != nil {
			data = []byte(fmt.Sprint(tr.Result))
		}
		fmt.Fprintf(out, "\n[%s]\n  %s\n", tr.Tool, data)
	}
}
