package main

import (
	"os"

	bookmarkhubcmder "github.com/bookmarkhub/bookmarkhub/cmd/bookmarkhub"
)

func main() {
	cmd := bookmarkhubcmder.NewBookmarkHubCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
