package formatting

import (
	"fmt"

	"ssc/internal/keycloak"

	"sigs.k8s.io/yaml"
)

// YAMLFormatter provides YAML output formatting. Field names follow the
// JSON representation of the API.
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) *YAMLFormatter {
	return &YAMLFormatter{options: options}
}

func (f *YAMLFormatter) FormatClients(clients []keycloak.ClientRecord) error {
	if clients == nil {
		clients = []keycloak.ClientRecord{}
	}
	return f.write(clients)
}

func (f *YAMLFormatter) FormatClient(client *keycloak.ClientRecord) error {
	return f.write(client)
}

func (f *YAMLFormatter) FormatData(data map[string]any) error {
	return f.write(data)
}

func (f *YAMLFormatter) write(v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	_, err = f.options.Writer.Write(out)
	return err
}
