package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "storycanvas",
		Short:        "Story writing workspace with idea tagging and AI continuation",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(tagCmd())
	root.AddCommand(wordCountCmd())
	root.AddCommand(revealCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
