package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseFormat(c.v.GetString("output"))
			if err != nil {
				return err
			}
			info := versionInfo{
				Version:   Version,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			a := &app{out: c.stdout, format: format}
			return a.render(info, func(w io.Writer) error {
				fmt.Fprintf(w, "tisdk %s (%s, %s)\n", info.Version, info.Platform, info.GoVersion)
				return nil
			})
		},
	}
}
