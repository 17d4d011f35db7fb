package contracts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionStrings(t *testing.T) {
	assert.Contains(t, GetVersionString(), Version)

	full := GetFullVersionString()
	assert.True(t, strings.HasPrefix(full, GetVersionString()))
	assert.Contains(t, full, "commit: "+GitCommit)
}
