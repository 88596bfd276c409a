package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nollidnosnhoj/ggpx/pkg/uploadclient"
)

var version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ggpx",
	Short: "ggpx CLI - share game screenshots from the command line",
	Long: `ggpx is the command-line client for the ggpx API.

It checks screenshots locally, uploads them straight to storage and
publishes them as posts tied to a game.

Examples:
  # Check files before uploading
  ggpx inspect shots/*.png

  # Find a game id
  ggpx games search "hollow knight"

  # Upload and publish
  ggpx post --game-id 14593 --tags boss,fight shots/*.png`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(gamesCmd)

	rootCmd.PersistentFlags().String("api", envOr("GGPX_API_URL", "http://localhost:8080"), "ggpx API base URL")
	rootCmd.PersistentFlags().String("token", os.Getenv("GGPX_TOKEN"), "Bearer token for the API")
	rootCmd.PersistentFlags().String("user-id", os.Getenv("GGPX_USER_ID"), "User id sent when the API trusts gateway headers")
	rootCmd.PersistentFlags().String("user-name", os.Getenv("GGPX_USER_NAME"), "Display name sent with --user-id")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Timeout for API calls")
}

func newClient(cmd *cobra.Command) *uploadclient.Client {
	flags := cmd.Flags()
	api, _ := flags.GetString("api")
	token, _ := flags.GetString("token")
	userID, _ := flags.GetString("user-id")
	userName, _ := flags.GetString("user-name")
	timeout, _ := flags.GetDuration("timeout")

	return uploadclient.New(uploadclient.Config{
		BaseURL:  api,
		Token:    token,
		UserID:   userID,
		UserName: userName,
		Timeout:  timeout,
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
