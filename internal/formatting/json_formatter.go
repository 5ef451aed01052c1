package formatting

import (
	"fmt"

	"ssc/internal/keycloak"
)

// JSONFormatter provides JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) *JSONFormatter {
	return &JSONFormatter{options: options}
}

func (f *JSONFormatter) FormatClients(clients []keycloak.ClientRecord) error {
	if clients == nil {
		clients = []keycloak.ClientRecord{}
	}
	return f.write(clients)
}

func (f *JSONFormatter) FormatClient(client *keycloak.ClientRecord) error {
	return f.write(client)
}

func (f *JSONFormatter) FormatData(data map[string]any) error {
	return f.write(data)
}

func (f *JSONFormatter) write(v any) error {
	_, err := fmt.Fprintln(f.options.Writer, PrettyJSON(v))
	return err
}
