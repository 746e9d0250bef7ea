package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keepclip/keepclip/internal/buildinfo"
)

// version, commit and date are set via -ldflags -X at build time.
var (
	version = ""
	commit  = ""
	date    = ""
)

// Execute builds and runs the keepclipd root command.
func Execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	info := buildinfo.NewContext(version, commit, date)

	cmd := &cobra.Command{
		Use:     "keepclipd",
		Short:   "Headless rolling A/V buffer and on-demand clip extractor",
		Version: info.String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context())
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf("%s\n", info.String()))
	return cmd
}
