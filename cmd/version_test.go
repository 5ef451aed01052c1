package cmd

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOutput(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		expected string
	}{
		{name: "release", version: "1.2.3", expected: "ssc version 1.2.3"},
		{name: "unset", version: "", expected: "ssc version dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := rootCmd.Version
			defer SetVersion(original)
			SetVersion(tt.version)

			var buf bytes.Buffer
			c := newVersionCmd()
			c.SetOut(&buf)
			c.SetArgs([]string{})
			require.NoError(t, c.Execute())

			assert.Equal(t, tt.expected+" ("+runtime.Version()+", "+runtime.GOOS+"/"+runtime.GOARCH+")\n", buf.String())
		})
	}
}

func TestVersionRejectsArguments(t *testing.T) {
	c := newVersionCmd()
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	c.SetArgs([]string{"extra"})
	assert.Error(t, c.Execute())
}
