package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"ssc/internal/formatting"
	"ssc/internal/keycloak"
	"ssc/internal/notify"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var (
	clientsOutput      string
	clientsFile        string
	clientsShowSecrets bool
	clientsYes         bool
)

var clientsCmd = &cobra.Command{
	Use:     "clients",
	Aliases: []string{"client"},
	Short:   "Manage your self-service clients",
	Long: `Manage the OpenID Connect clients you own.

Client ids must start with "ssc-". Create and update read the client from
a YAML or JSON file that uses the API field names.

Examples:
  ssc clients list
  ssc clients get 0f6d2a4c-...
  ssc clients create -f client.yaml
  ssc clients update 0f6d2a4c-... -f client.yaml
  ssc clients regenerate-secret 0f6d2a4c-...
  ssc clients delete 0f6d2a4c-...`,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the clients you manage",
	Args:  cobra.NoArgs,
	RunE:  runClientsList,
}

var clientsGetCmd = &cobra.Command{
	Use:   "get ID...",
	Short: "Show one or more clients",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClientsGet,
}

var clientsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a client from a file",
	Args:  cobra.NoArgs,
	RunE:  runClientsCreate,
}

var clientsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Replace the writable fields of a client from a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runClientsUpdate,
}

var clientsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a client",
	Args:  cobra.ExactArgs(1),
	RunE:  runClientsDelete,
}

var clientsRegenerateCmd = &cobra.Command{
	Use:   "regenerate-secret ID",
	Short: "Generate a new client secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runClientsRegenerateSecret,
}

func init() {
	rootCmd.AddCommand(clientsCmd)
	clientsCmd.AddCommand(clientsListCmd, clientsGetCmd, clientsCreateCmd, clientsUpdateCmd, clientsDeleteCmd, clientsRegenerateCmd)

	clientsCmd.PersistentFlags().StringVarP(&clientsOutput, "output", "o", "table", "Output format (table, json, yaml)")
	clientsCmd.PersistentFlags().BoolVar(&clientsShowSecrets, "show-secrets", false, "Show client secrets in tables")
	for _, c := range []*cobra.Command{clientsCreateCmd, clientsUpdateCmd} {
		c.Flags().StringVarP(&clientsFile, "filename", "f", "", "YAML or JSON file with the client (- for stdin)")
		_ = c.MarkFlagRequired("filename")
	}
	clientsDeleteCmd.Flags().BoolVarP(&clientsYes, "yes", "y", false, "Skip the confirmation prompt")
}

func clientsFormatter(cmd *cobra.Command) (formatting.Formatter, error) {
	format, err := formatting.ParseFormat(clientsOutput)
	if err != nil {
		return nil, err
	}
	return formatting.NewFormatter(formatting.Options{
		Format:      format,
		Writer:      cmd.OutOrStdout(),
		ShowSecrets: clientsShowSecrets,
	}), nil
}

// withClients runs fn with an authenticated app and the output formatter.
func withClients(cmd *cobra.Command, fn func(ctx context.Context, a *app, f formatting.Formatter) error) error {
	f, err := clientsFormatter(cmd)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.requireSession(ctx); err != nil {
			return err
		}
		return fn(ctx, a, f)
	})
}

func runClientsList(cmd *cobra.Command, args []string) error {
	return withClients(cmd, func(ctx context.Context, a *app, f formatting.Formatter) error {
		clients, err := a.keycloak.GetClients(ctx)
		if err != nil {
			return err
		}
		return f.FormatClients(clients)
	})
}

func runClientsGet(cmd *cobra.Command, args []string) error {
	return withClients(cmd, func(ctx context.Context, a *app, f formatting.Formatter) error {
		if len(args) == 1 {
			client, err := a.keycloak.GetClient(ctx, args[0])
			if err != nil {
				return err
			}
			return f.FormatClient(client)
		}
		clients, err := a.keycloak.ResolveClients(ctx, args)
		if err != nil {
			return err
		}
		return f.FormatClients(clients)
	})
}

func runClientsCreate(cmd *cobra.Command, args []string) error {
	w, err := readWritableClient(cmd.InOrStdin(), clientsFile)
	if err != nil {
		return err
	}
	return withClients(cmd, func(ctx context.Context, a *app, f formatting.Formatter) error {
		created, err := a.keycloak.CreateClient(ctx, w)
		if err != nil {
			return err
		}
		notify.SavingSuccessful(a.notifier)
		return f.FormatClient(created)
	})
}

func runClientsUpdate(cmd *cobra.Command, args []string) error {
	w, err := readWritableClient(cmd.InOrStdin(), clientsFile)
	if err != nil {
		return err
	}
	return withClients(cmd, func(ctx context.Context, a *app, f formatting.Formatter) error {
		if err := a.keycloak.UpdateClient(ctx, args[0], w); err != nil {
			return err
		}
		notify.SavedSuccessfully(a.notifier)
		return nil
	})
}

func runClientsDelete(cmd *cobra.Command, args []string) error {
	if !clientsYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete client %s? [y/N]: ", args[0]))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}
	return withClients(cmd, func(ctx context.Context, a *app, f formatting.Formatter) error {
		if err := a.keycloak.DeleteClient(ctx, args[0]); err != nil {
			return err
		}
		printf(cmd.OutOrStdout(), "Deleted client %s\n", args[0])
		return nil
	})
}

func runClientsRegenerateSecret(cmd *cobra.Command, args []string) error {
	return withClients(cmd, func(ctx context.Context, a *app, f formatting.Formatter) error {
		client, err := a.keycloak.RegenerateSecret(ctx, args[0])
		if err != nil {
			return err
		}
		if clientsOutput == string(formatting.FormatTable) {
			fmt.Fprintln(cmd.OutOrStdout(), client.Secret)
			return nil
		}
		return f.FormatClient(client)
	})
}

// readWritableClient decodes a client from path, or from in when path is "-".
// JSON is valid YAML, so both are accepted. Server-owned fields such as id
// are ignored, so the output of "clients get -o yaml" can be edited and fed
// back.
func readWritableClient(in io.Reader, path string) (keycloak.WritableClient, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return keycloak.WritableClient{}, fmt.Errorf("failed to read client file: %w", err)
	}

	var w keycloak.WritableClient
	if err := yaml.Unmarshal(data, &w); err != nil {
		return keycloak.WritableClient{}, fmt.Errorf("failed to parse client file %s: %w", path, err)
	}
	return w, nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
