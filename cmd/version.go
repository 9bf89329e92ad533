package cmd

import (
	"fmt"
	"io"

	"github.com/conneroisu/synthdom/internal/version"
	"github.com/spf13/cobra"
)

var versionShort bool

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for synthdom including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version and target platform
- Snapshot format version

Examples:
  synthdom version              # Show version
  synthdom version --short      # Show short version only
  synthdom version --detailed   # Include module versions
  synthdom version -o json      # Output as JSON`,
	RunE: runVersionCommand,
}

var versionOutput *OutputFlags

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
	versionCmd.Flags().Bool("detailed", false, "Show detailed version information")
	versionOutput = AddOutputFlags(versionCmd)
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	detailed, _ := cmd.Flags().GetBool("detailed")
	info := version.GetBuildInfo()

	return versionOutput.write(cmd.OutOrStdout(), info, func(w io.Writer) error {
		switch {
		case versionShort:
			_, err := fmt.Fprintln(w, version.GetShortVersion())
			return err
		case detailed:
			return writeVersionDetailed(w)
		default:
			return writeVersionDefault(w, info)
		}
	})
}

func writeVersionDefault(w io.Writer, info *version.BuildInfo) error {
	fmt.Fprintf(w, "synthdom %s", info.Version)
	if info.GitCommit != "unknown" && len(info.GitCommit) >= 7 {
		fmt.Fprintf(w, " (%s)", info.GitCommit[:7])
	}
	if info.Dirty {
		fmt.Fprint(w, " (dirty)")
	}
	fmt.Fprintln(w)

	if !info.BuildTime.IsZero() {
		fmt.Fprintf(w, "Built: %s\n", info.BuildTime.Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(w, "Go: %s\n", info.GoVersion)
	fmt.Fprintf(w, "Platform: %s\n", info.Platform)
	return nil
}

func writeVersionDetailed(w io.Writer) error {
	fmt.Fprintln(w, version.GetDetailedVersion())
	if version.IsRelease() {
		fmt.Fprintln(w, "Build type: release")
	} else {
		fmt.Fprintln(w, "Build type: development")
	}
	return nil
}
