// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the labscout version and build details",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}

// versionString reports the ldflags version, the toolchain and, when the
// binary was built from a checkout, the short commit.
func versionString() string {
	s := fmt.Sprintf("labscout %s (%s %s/%s", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, kv := range info.Settings {
			if kv.Key == "vcs.revision" && len(kv.Value) >= 7 {
				s += ", commit " + kv.Value[:7]
			}
		}
	}
	return s + ")"
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
