package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsed(t *testing.T) {
	tests := []struct {
		version string
		parses  bool
	}{
		{"v1.2.3", true},
		{"1.2.3", true},
		{"v0.4.0-beta.1", true},
		{"v1.0.0+build123", true},
		{"dev", false},
		{"unknown", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			resetParsedVersion()
			Version = tt.version

			if tt.parses {
				assert.NotNil(t, Parsed())
			} else {
				assert.Nil(t, Parsed())
				assert.True(t, IsDevBuild())
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		current string
		other   string
		want    int
	}{
		{"v1.0.0", "v1.0.0", 0},
		{"v1.0.1", "v1.0.0", 1},
		{"v1.0.0", "v1.0.1", -1},
		{"v1.0.0", "v1.0.0-beta.1", 1},
		{"dev", "v1.0.0", 0},
		{"v1.0.0", "garbage", 0},
	}

	for _, tt := range tests {
		t.Run(tt.current+"_vs_"+tt.other, func(t *testing.T) {
			resetParsedVersion()
			Version = tt.current

			assert.Equal(t, tt.want, Compare(tt.other))
		})
	}
}

func TestIsNewerThan(t *testing.T) {
	resetParsedVersion()
	Version = "v2.1.0"

	assert.True(t, IsNewerThan("v2.0.9"))
	assert.False(t, IsNewerThan("v2.1.0"))
	assert.False(t, IsNewerThan("v3.0.0"))
}
