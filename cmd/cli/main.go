// Command cli is an operator tool for checking the audio node and the
// bot's datastore without starting the bot.
//
// Usage:
//
//	cli probe
//	cli search "never gonna give you up"
//	cli history <guild-id>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/keshon/guildtunes/internal/config"
	"github.com/keshon/guildtunes/internal/lavalink"
	"github.com/keshon/guildtunes/internal/storage"
)

var (
	flagURI      string
	flagPassword string
	flagPrefix   string
	flagStorage  string
	flagJSON     bool
	flagTimeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "cli",
	Short:         "Inspect the audio node and the bot datastore",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check whether the audio node answers HTTP requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		node, err := newNode()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		start := time.Now()
		if err := node.Probe(ctx); err != nil {
			return fmt.Errorf("node at %s is not live: %w", flagURI, err)
		}
		fmt.Printf("node at %s is live (%s)\n", flagURI, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Resolve a query or URL through the audio node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		node, err := newNode()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
		defer cancel()

		res, err := node.LoadTracks(ctx, args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(res)
		}
		if res.IsPlaylist() {
			fmt.Printf("playlist %q with %d tracks\n", res.Playlist.Name, len(res.Playlist.Tracks))
		}
		for i, t := range res.Tracks() {
			fmt.Printf("%3d. %s [%s] %s\n", i+1, t.DisplayName(), t.Length, t.URI)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <guild-id>",
	Short: "Print the recorded play and command history of a guild",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.New(flagStorage)
		if err != nil {
			return err
		}
		defer store.Close()

		tracks, err := store.FetchTrackHistory(args[0])
		if err != nil {
			return err
		}
		commands, err := store.FetchCommandHistory(args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(map[string]any{"tracks": tracks, "commands": commands})
		}

		fmt.Println("Tracks:")
		for _, t := range tracks {
			fmt.Printf("  %s  %s - %s\n", t.PlayedAt.Format(time.DateTime), t.Author, t.Title)
		}
		fmt.Println("Commands:")
		for _, c := range commands {
			fmt.Printf("  %s  %s /%s %s\n", c.Datetime.Format(time.DateTime), c.Username, c.Command, c.Param)
		}
		return nil
	},
}

func newNode() (*lavalink.Node, error) {
	return lavalink.New(lavalink.Config{
		URI:           flagURI,
		Password:      flagPassword,
		ClientName:    "guildtunes-cli",
		SearchPrefix:  flagPrefix,
		CacheCapacity: 0,
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	config.Load()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagURI, "uri", lo.CoalesceOrEmpty(os.Getenv("NODE_URI"), "http://localhost:2333"), "audio node base URI")
	pf.StringVar(&flagPassword, "password", lo.CoalesceOrEmpty(os.Getenv("NODE_PASSWORD"), "youshallnotpass"), "audio node password")
	pf.StringVar(&flagPrefix, "prefix", lo.CoalesceOrEmpty(os.Getenv("NODE_SEARCH_PREFIX"), "ytmsearch"), "search prefix for plain-text queries")
	pf.StringVar(&flagStorage, "storage", lo.CoalesceOrEmpty(os.Getenv("STORAGE_PATH"), "datastore.json"), "path of the bot datastore")
	pf.BoolVar(&flagJSON, "json", false, "print JSON output")
	pf.DurationVar(&flagTimeout, "timeout", 15*time.Second, "request timeout")

	rootCmd.AddCommand(probeCmd, searchCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
