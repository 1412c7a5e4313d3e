package buildconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo(t *testing.T) {
	info := VersionInfo()
	assert.Equal(t, Name, info["service"])
	assert.Equal(t, Version(), info["version"])
	assert.Equal(t, Commit(), info["commit"])
	assert.NotContains(t, info, "build_time")
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "mindforge/"+Version(), UserAgent())
}
