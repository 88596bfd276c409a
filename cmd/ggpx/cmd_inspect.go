package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nollidnosnhoj/ggpx/pkg/uploadclient"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>...",
	Short: "Check that files are uploadable screenshots",
	Long: fmt.Sprintf(`Decode each file locally and report its type and dimensions.

Files must be JPEG or PNG images at least %dx%d pixels.`, uploadclient.MinDimension, uploadclient.MinDimension),
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	_, rejected := inspectAll(args)
	if rejected > 0 {
		return fmt.Errorf("%d of %d files rejected", rejected, len(args))
	}
	return nil
}

// inspectAll reports every file and returns the accepted entries.
func inspectAll(paths []string) ([]*uploadclient.Entry, int) {
	entries := make([]*uploadclient.Entry, 0, len(paths))
	rejected := 0
	for _, path := range paths {
		entry, err := uploadclient.Inspect(path)
		if err != nil {
			printError("%s: %v", path, err)
			rejected++
			continue
		}
		printSuccess("%s: %s %dx%d (%d bytes)", entry.FileName, entry.ContentType, entry.Width, entry.Height, entry.FileSize)
		entries = append(entries, entry)
	}
	return entries, rejected
}
