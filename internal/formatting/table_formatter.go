package formatting

import (
	"fmt"
	"sort"
	"strings"

	"ssc/internal/keycloak"
	pkgstrings "ssc/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const maxCellWidth = 100

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) *TableFormatter {
	return &TableFormatter{options: options}
}

// FormatClients lists clients one per row.
func (f *TableFormatter) FormatClients(clients []keycloak.ClientRecord) error {
	if len(clients) == 0 {
		fmt.Fprint(f.options.Writer, f.formatEmptyMessage("📋", "No clients found"))
		return nil
	}

	t := f.createTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("ID"),
		text.FgHiCyan.Sprint("CLIENT ID"),
		text.FgHiCyan.Sprint("NAME"),
		text.FgHiCyan.Sprint("ENABLED"),
		text.FgHiCyan.Sprint("PUBLIC"),
		text.FgHiCyan.Sprint("REDIRECT URIS"),
	})
	for _, c := range clients {
		t.AppendRow(table.Row{
			c.ID,
			text.Bold.Sprint(c.ClientID),
			c.Name,
			formatBool(c.Enabled),
			formatBool(c.PublicClient),
			pkgstrings.JoinCell(c.RedirectURIs, maxCellWidth),
		})
	}
	t.Render()

	fmt.Fprintf(f.options.Writer, "\n%s %s %s\n",
		text.FgHiBlue.Sprint("Total:"),
		text.FgHiWhite.Sprint(len(clients)),
		text.FgHiBlue.Sprint("clients"))
	return nil
}

// FormatClient shows every field of one client.
func (f *TableFormatter) FormatClient(c *keycloak.ClientRecord) error {
	secret := c.Secret
	if secret != "" && !f.options.ShowSecrets {
		secret = "********"
	}

	rows := []struct {
		key   string
		value any
	}{
		{"ID", c.ID},
		{"Client ID", text.Bold.Sprint(c.ClientID)},
		{"Name", c.Name},
		{"Description", c.Description},
		{"Enabled", formatBool(c.Enabled)},
		{"Public client", formatBool(c.PublicClient)},
		{"Root URL", c.RootURL},
		{"Base URL", c.BaseURL},
		{"Redirect URIs", strings.Join(c.RedirectURIs, "\n")},
		{"Web origins", strings.Join(c.WebOrigins, "\n")},
		{"Post logout redirect URIs", strings.Join(c.PostLogoutRedirectURIs, "\n")},
		{"Front channel logout", formatBool(c.FrontchannelLogout)},
		{"Front channel logout URL", c.FrontchannelLogoutURL},
		{"Back channel logout URL", c.BackchannelLogoutURL},
		{"Back channel logout session required", formatBool(c.BackchannelLogoutSessionRequired)},
		{"Back channel logout revokes offline tokens", formatBool(c.BackchannelLogoutRevokeOfflineTokens)},
		{"Standard flow", formatBool(c.StandardFlowEnabled)},
		{"Implicit flow", formatBool(c.ImplicitFlowEnabled)},
		{"Direct access grants", formatBool(c.DirectAccessGrantsEnabled)},
		{"Service accounts", formatBool(c.ServiceAccountsEnabled)},
		{"Authorization services", formatBool(c.AuthorizationServicesEnabled)},
		{"Managers", strings.Join(c.Managers, ", ")},
		{"Secret", secret},
	}

	t := f.createTable()
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("FIELD"), text.FgHiCyan.Sprint("VALUE")})
	for _, r := range rows {
		t.AppendRow(table.Row{text.FgHiCyan.Sprint(r.key), r.value})
	}
	t.Render()
	return nil
}

// FormatData formats object data as key-value pairs in key order.
func (f *TableFormatter) FormatData(data map[string]any) error {
	if len(data) == 0 {
		fmt.Fprint(f.options.Writer, f.formatEmptyMessage("📋", "No data"))
		return nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := f.createTable()
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("KEY"), text.FgHiCyan.Sprint("VALUE")})
	for _, key := range keys {
		t.AppendRow(table.Row{text.FgHiCyan.Sprint(key), pkgstrings.TruncateCell(fmt.Sprintf("%v", data[key]), maxCellWidth)})
	}
	t.Render()
	return nil
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.Writer)
	t.SetStyle(table.StyleRounded)
	return t
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(icon, message string) string {
	return fmt.Sprintf("%s %s\n", text.FgYellow.Sprint(icon), text.FgYellow.Sprint(message))
}

func formatBool(b bool) string {
	if b {
		return text.FgGreen.Sprint("yes")
	}
	return text.FgHiBlack.Sprint("no")
}
