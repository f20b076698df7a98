// Package bookmarkhubcmder is the top-level cobra command, grounded on
// papercomputeco-tapes/cmd/tapes/tapes.go's root-command shape.
package bookmarkhubcmder

import (
	"github.com/spf13/cobra"

	servecmder "github.com/bookmarkhub/bookmarkhub/cmd/bookmarkhub/serve"
)

const bookmarkHubLongDesc string = `Bookmark Hub is a self-hosted bookmark ingestion and retrieval service.

Run it with:
  bookmarkhub serve      Run the API server and ingestion workers together`

const bookmarkHubShortDesc string = "Bookmark Hub - self-hosted bookmark ingestion and retrieval"

// NewBookmarkHubCmd builds the root command.
func NewBookmarkHubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmarkhub",
		Short: bookmarkHubShortDesc,
		Long:  bookmarkHubLongDesc,
	}

	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to an optional TOML config file")

	cmd.AddCommand(servecmder.NewServeCmd())

	return cmd
}
