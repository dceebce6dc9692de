package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tecnobros/battly-setup/internal/output"
	"github.com/tecnobros/battly-setup/internal/platform"
)

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	Platform  string `json:"platform" yaml:"platform"`
}

func (v versionInfo) String() string {
	return fmt.Sprintf("battly-setup %s (commit %s, built %s, %s)", v.Version, v.Commit, v.BuildDate, v.Platform)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			return output.NewWriter(cmd.OutOrStdout(), format).Write(versionInfo{
				Version:   buildVersion,
				Commit:    buildCommit,
				BuildDate: buildDate,
				Platform:  platform.Detect().String(),
			})
		},
	}
}
