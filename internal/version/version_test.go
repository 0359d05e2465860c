package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	prevVersion, prevCommit := Version, GitCommit
	defer func() { Version, GitCommit = prevVersion, prevCommit }()

	Version, GitCommit = "1.2.0", "unknown"
	assert.Equal(t, "1.2.0", Short())

	GitCommit = "0123456789abcdef"
	assert.Equal(t, "1.2.0 (0123456)", Short())
	assert.Contains(t, String(), "Binary Futures 1.2.0 (0123456)")
}

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Name, info.Name)
	assert.NotEmpty(t, info.GoVersion)
}
