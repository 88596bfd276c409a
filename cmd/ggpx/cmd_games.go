package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Game catalog lookups",
}

var gamesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the game catalog by name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGamesSearch,
}

func init() {
	gamesCmd.AddCommand(gamesSearchCmd)
}

func runGamesSearch(cmd *cobra.Command, args []string) error {
	games, err := newClient(cmd).SearchGames(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(games) == 0 {
		printInfo("No games found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSLUG")
	for _, g := range games {
		fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Name, g.Slug)
	}
	return w.Flush()
}
