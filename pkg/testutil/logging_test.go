package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVerbose(t *testing.T) {
	assert.True(t, isVerbose([]string{"pkg.test", "-test.v"}))
	assert.True(t, isVerbose([]string{"pkg.test", "-test.v=true"}))
	assert.True(t, isVerbose([]string{"pkg.test", "-test.v=test2json"}))
	assert.False(t, isVerbose([]string{"pkg.test", "-test.v=false"}))
	assert.False(t, isVerbose([]string{"pkg.test", "-test.run=TestX"}))
}
