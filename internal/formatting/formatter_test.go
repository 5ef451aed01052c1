package formatting

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"ssc/internal/keycloak"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func sampleClients() []keycloak.ClientRecord {
	return []keycloak.ClientRecord{
		{
			ID:     "0f6d",
			Secret: "s3cr3t",
			WritableClient: keycloak.WritableClient{
				ClientID:     "ssc-demo",
				Name:         "Demo",
				Enabled:      true,
				RedirectURIs: []string{"https://demo.example.com/*"},
			},
		},
		{
			ID: "9a1c",
			WritableClient: keycloak.WritableClient{
				ClientID:     "ssc-public",
				PublicClient: true,
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "", want: FormatTable},
		{in: "table", want: FormatTable},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &TableFormatter{}, NewFormatter(Options{}))
	assert.IsType(t, &JSONFormatter{}, NewFormatter(Options{Format: FormatJSON}))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(Options{Format: FormatYAML}))
}

func TestTableFormatter(t *testing.T) {
	text.DisableColors()
	defer text.EnableColors()

	t.Run("list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewTableFormatter(Options{Writer: &buf}).FormatClients(sampleClients()))

		out := buf.String()
		assert.Contains(t, out, "CLIENT ID")
		assert.Contains(t, out, "ssc-demo")
		assert.Contains(t, out, "ssc-public")
		assert.Contains(t, out, "https://demo.example.com/*")
		assert.Contains(t, out, "Total: 2 clients")
	})

	t.Run("empty list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewTableFormatter(Options{Writer: &buf}).FormatClients(nil))
		assert.Contains(t, buf.String(), "No clients found")
	})

	t.Run("secret masked", func(t *testing.T) {
		c := sampleClients()[0]
		var buf bytes.Buffer
		require.NoError(t, NewTableFormatter(Options{Writer: &buf}).FormatClient(&c))
		assert.Contains(t, buf.String(), "********")
		assert.NotContains(t, buf.String(), "s3cr3t")
	})

	t.Run("secret shown", func(t *testing.T) {
		c := sampleClients()[0]
		var buf bytes.Buffer
		require.NoError(t, NewTableFormatter(Options{Writer: &buf, ShowSecrets: true}).FormatClient(&c))
		assert.Contains(t, buf.String(), "s3cr3t")
	})

	t.Run("data sorted by key", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewTableFormatter(Options{Writer: &buf}).FormatData(map[string]any{
			"sub":                "8d3f",
			"email":              "jane.doe@example.com",
			"preferred_username": "jdoe",
		}))
		out := buf.String()
		assert.Less(t, strings.Index(out, "email"), strings.Index(out, "preferred_username"))
		assert.Less(t, strings.Index(out, "preferred_username"), strings.Index(out, "sub"))
	})

	t.Run("long values truncated", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewTableFormatter(Options{Writer: &buf}).FormatData(map[string]any{
			"long": strings.Repeat("x", 300),
		}))
		assert.Contains(t, buf.String(), "...")
		assert.NotContains(t, buf.String(), strings.Repeat("x", maxCellWidth))
	})
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(Options{Writer: &buf}).FormatClients(sampleClients()))

	var got []keycloak.ClientRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleClients(), got)

	buf.Reset()
	require.NoError(t, NewJSONFormatter(Options{Writer: &buf}).FormatClients(nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter(t *testing.T) {
	c := sampleClients()[0]
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(Options{Writer: &buf}).FormatClient(&c))

	out := buf.String()
	assert.Contains(t, out, "clientId: ssc-demo")
	assert.Contains(t, out, "redirectUris:")

	var got keycloak.ClientRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, c, got)
}
