package version

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionUsesLinkerValue(t *testing.T) {
	original := Version
	t.Cleanup(func() { Version = original })

	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", GetVersion())
	assert.True(t, IsRelease())
}

func TestShortVersionWithCommit(t *testing.T) {
	originalVersion, originalCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = originalVersion, originalCommit })

	Version = "v0.4.0"
	GitCommit = "0123456789abcdef"
	assert.Equal(t, "v0.4.0 (0123456)", GetShortVersion())
}

func TestParseBuildTime(t *testing.T) {
	testCases := []struct {
		input    string
		expected time.Time
	}{
		{"2025-03-01T10:00:00Z", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2025-03-01T10:00:00", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2025-03-01 10:00:00", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"unknown", time.Time{}},
		{"", time.Time{}},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.True(t, tc.expected.Equal(parseBuildTime(tc.input)))
		})
	}
}

func TestBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	assert.Equal(t, 1, info.SnapshotFormat)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")

	detailed := GetDetailedVersion()
	assert.True(t, strings.HasPrefix(detailed, "Version: "))
	assert.Contains(t, detailed, "Snapshot format: 1")
}
