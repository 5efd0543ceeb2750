package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/llehouerou/ncstream/internal/errmsg"
)

var resolveNoCache bool

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <song-id>",
	Short: "Print the playable URL of a song",
	Long: `Look up the playable URL of a NetEase Cloud Music song and print it.

When the API returns no candidate the public outer-url link is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid song id %q", args[0])
		}

		a, err := newApp(cmd.Context(), false, !resolveNoCache)
		if err != nil {
			return err
		}
		defer a.close()

		u, err := a.resolver.Resolve(cmd.Context(), id)
		if err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpResolveURL, args[0], err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), u)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolVar(&resolveNoCache, "no-cache", false, "Bypass the resolved URL cache")
}
