// Package version reports build information for the synthdom binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/conneroisu/synthdom/internal/snapshot"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version        string            `json:"version" yaml:"version"`
	GitCommit      string            `json:"git_commit" yaml:"git_commit"`
	BuildTime      time.Time         `json:"build_time" yaml:"build_time"`
	GoVersion      string            `json:"go_version" yaml:"go_version"`
	Platform       string            `json:"platform" yaml:"platform"`
	Dirty          bool              `json:"dirty" yaml:"dirty"`
	SnapshotFormat int               `json:"snapshot_format" yaml:"snapshot_format"`
	Modules        map[string]string `json:"modules,omitempty" yaml:"modules,omitempty"`
}

// These variables are set at build time using -ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	// BuildTime is RFC 3339.
	BuildTime = "unknown"
)

// GetBuildInfo returns comprehensive build information
func GetBuildInfo() *BuildInfo {
	info := &BuildInfo{
		Version:        GetVersion(),
		GitCommit:      GetGitCommit(),
		BuildTime:      parseBuildTime(BuildTime),
		GoVersion:      runtime.Version(),
		Platform:       fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Dirty:          setting("vcs.modified") == "true",
		SnapshotFormat: snapshot.FormatVersion,
	}
	if build, ok := debug.ReadBuildInfo(); ok && len(build.Deps) > 0 {
		info.Modules = make(map[string]string, len(build.Deps))
		for _, dep := range build.Deps {
			info.Modules[dep.Path] = dep.Version
		}
	}
	return info
}

// GetVersion returns the application version
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if build, ok := debug.ReadBuildInfo(); ok && build.Main.Version != "(devel)" && build.Main.Version != "" {
		return build.Main.Version
	}
	if revision := setting("vcs.revision"); len(revision) >= 7 {
		return "dev-" + revision[:7]
	}
	return "dev"
}

// GetGitCommit returns the git commit hash
func GetGitCommit() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}
	if revision := setting("vcs.revision"); revision != "" {
		return revision
	}
	return "unknown"
}

// GetShortVersion returns a short version string suitable for display
func GetShortVersion() string {
	version := GetVersion()
	commit := GetGitCommit()

	if commit != "unknown" && len(commit) >= 7 && !strings.HasPrefix(version, "dev") {
		return fmt.Sprintf("%s (%s)", version, commit[:7])
	}
	return version
}

// GetDetailedVersion returns a detailed version string with all build info
func GetDetailedVersion() string {
	info := GetBuildInfo()

	parts := []string{"Version: " + info.Version}
	if info.GitCommit != "unknown" {
		commit := "Commit: " + info.GitCommit
		if info.Dirty {
			commit += " (dirty)"
		}
		parts = append(parts, commit)
	}
	if !info.BuildTime.IsZero() {
		parts = append(parts, "Built: "+info.BuildTime.Format(time.RFC3339))
	}
	parts = append(parts,
		"Go: "+info.GoVersion,
		"Platform: "+info.Platform,
		fmt.Sprintf("Snapshot format: %d", info.SnapshotFormat),
	)

	if len(info.Modules) > 0 {
		parts = append(parts, "Modules:")
		paths := make([]string, 0, len(info.Modules))
		for path := range info.Modules {
			paths = append(paths, path)
		}
		slices.Sort(paths)
		for _, path := range paths {
			parts = append(parts, fmt.Sprintf("  %s %s", path, info.Modules[path]))
		}
	}

	return strings.Join(parts, "\n")
}

// IsRelease returns true if this is a release build (not dev)
func IsRelease() bool {
	return !strings.HasPrefix(GetVersion(), "dev")
}

func setting(key string) string {
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range build.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// parseBuildTime parses an RFC 3339 build time; anything else is the zero
// time.
func parseBuildTime(value string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
