package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nollidnosnhoj/ggpx/pkg/uploadclient"
)

// maxBatch mirrors the API limit on posts per submission.
const maxBatch = 10

var postCmd = &cobra.Command{
	Use:   "post <file>...",
	Short: "Upload screenshots and publish them as posts",
	Long: `Upload each file directly to storage and publish one post per file.

Every file is checked locally first. Nothing is published unless all
uploads succeed.

Examples:
  ggpx post --game-id 14593 shot.png
  ggpx post --game-id 14593 --tags boss,fight --caption "first try" a.png b.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPost,
}

func init() {
	postCmd.Flags().Int64("game-id", 0, "Catalog id of the game shown in the screenshots")
	postCmd.Flags().StringSlice("tags", nil, "Tags applied to every post")
	postCmd.Flags().String("title", "", "Post title (defaults to the tags)")
	postCmd.Flags().String("caption", "", "Post caption")
	postCmd.Flags().Bool("upload-only", false, "Upload without publishing and print the upload ids")
	_ = postCmd.MarkFlagRequired("game-id")
}

func runPost(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	gameID, _ := flags.GetInt64("game-id")
	tags, _ := flags.GetStringSlice("tags")
	title, _ := flags.GetString("title")
	caption, _ := flags.GetString("caption")
	uploadOnly, _ := flags.GetBool("upload-only")

	if gameID <= 0 {
		return fmt.Errorf("--game-id must be a positive catalog id")
	}
	for i := range tags {
		tags[i] = strings.TrimSpace(tags[i])
	}

	entries, rejected := inspectAll(args)
	if rejected > 0 {
		return fmt.Errorf("%d of %d files rejected, nothing uploaded", rejected, len(args))
	}

	client := newClient(cmd)
	ctx := cmd.Context()
	for _, entry := range entries {
		name := entry.FileName
		err := client.Upload(ctx, entry, func(pct int) {
			fmt.Print(progressBar(name, pct))
		})
		fmt.Println()
		if err != nil {
			return fmt.Errorf("upload %s: %w", entry.FileName, err)
		}
	}

	if uploadOnly {
		for _, entry := range entries {
			printInfo("%s\t%s", entry.UploadID, entry.FileName)
		}
		return nil
	}

	submissions := make([]uploadclient.PostSubmission, len(entries))
	for i, entry := range entries {
		submissions[i] = uploadclient.PostSubmission{
			Entry:   entry,
			Title:   title,
			Caption: caption,
			GameID:  gameID,
			Tags:    tags,
		}
	}
	for start := 0; start < len(submissions); start += maxBatch {
		end := min(start+maxBatch, len(submissions))
		if err := client.CreatePosts(ctx, submissions[start:end]); err != nil {
			return fmt.Errorf("publish posts %d-%d: %w", start+1, end, err)
		}
	}

	printSuccess("Published %d posts", len(submissions))
	return nil
}
