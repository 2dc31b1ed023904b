// Command outingsctl is a command line client for the outings API.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	token     string
	userID    string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "outingsctl",
		Short:        "Talk to an outings server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("OUTINGS_URL", "http://localhost:8000"), "server base URL")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("OUTINGS_TOKEN"), "bearer token (API key or JWT)")
	root.PersistentFlags().StringVarP(&userID, "user", "u", "", "user id (ignored when the token identifies the user)")

	root.AddCommand(
		newAskCommand(),
		newChatCommand(),
		newPrefsCommand(),
		newHistoryCommand(),
		newCacheCommand(),
	)
	return root
}

func client() *Client {
	return NewClient(serverURL, token)
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
