package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfUpdateRefusesDevelopmentBuilds(t *testing.T) {
	for _, version := range []string{"", "dev"} {
		t.Run("version "+version, func(t *testing.T) {
			original := rootCmd.Version
			defer SetVersion(original)
			SetVersion(version)

			err := runSelfUpdate(nil, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "cannot self-update a development version")
		})
	}
}

func TestSelfUpdateFlagsAndHelp(t *testing.T) {
	c := newSelfUpdateCmd()
	check := c.Flags().Lookup("check")
	require.NotNil(t, check)
	assert.Equal(t, "false", check.DefValue)

	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetErr(&buf)
	c.SetArgs([]string{"--help"})
	require.NoError(t, c.Execute())
	assert.Contains(t, buf.String(), "newest ssc release on GitHub")
	assert.Contains(t, buf.String(), "--check")
	assert.Equal(t, "self-service-clients/ssc", githubRepoSlug)
}
