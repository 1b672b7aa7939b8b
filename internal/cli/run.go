package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// usageError is a problem with the command line itself. It exits with 2.
type usageError struct {
	code    string
	message string
}

func (e *usageError) Error() string {
	return e.message
}

func newUsageError(code string, format string, args ...any) error {
	return &usageError{code: code, message: fmt.Sprintf(format, args...)}
}

// Run executes the notare CLI and returns the process exit code.
func Run(args []string, stdout io.Writer, stderr io.Writer) int {
	root := newRootCommand(stdout, stderr)
	// cobra falls back to os.Args when given nil.
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}

	var usageErr *usageError
	if errors.As(err, &usageErr) {
		writeCLIError(stdout, usageErr.code, usageErr.message, 0)
		return 2
	}
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		writeCLIError(stdout, apiErr.Code, apiErr.Message, apiErr.Status)
		return 1
	}
	writeCLIError(stdout, "request_failed", err.Error(), 0)
	return 1
}

func newRootCommand(stdout io.Writer, stderr io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("NOTARE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "notare",
		Short: "Client for the Notare deck generation API",
		Long: `notare talks to a running Notare server.

Example usage:
  notare health
  notare outline --html notes.html --provider openai --api-key $KEY
  notare generate --html notes.html --template brand.pptx --out deck.pptx --provider llama
  notare connector-import --document-id 1AbC --connector-session $SESSION`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return newUsageError("unknown_command", "unknown command %q", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return newUsageError("missing_command", "a command is required, see notare --help")
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newUsageError("invalid_arguments", "%s", err.Error())
	})

	flags := root.PersistentFlags()
	flags.String("base-url", "http://localhost:8080", "Notare API base URL")
	flags.Duration("timeout", 2*time.Minute, "HTTP timeout, e.g. 90s")
	flags.String("connector-key", "", "Connector API key for X-Connector-Key header")
	flags.String("connector-session", "", "Connector session key for X-Connector-Session header")
	_ = v.BindPFlags(flags)

	client := func() *apiClient {
		return &apiClient{
			baseURL:          strings.TrimRight(strings.TrimSpace(v.GetString("base-url")), "/"),
			connectorKey:     strings.TrimSpace(v.GetString("connector-key")),
			connectorSession: strings.TrimSpace(v.GetString("connector-session")),
			httpClient:       &http.Client{Timeout: v.GetDuration("timeout")},
		}
	}

	root.AddCommand(
		newGetCommand("health", "Check that the server is up", "/api/health", client),
		newGetCommand("capabilities", "List providers, formats and template limits", "/api/capabilities", client),
		newValidateTemplateCommand(client),
		newOutlineCommand(v, client),
		newGenerateCommand(v, client),
		newNormalizeCommand(client),
		newConnectorImportCommand(client),
	)
	return root
}

func newGetCommand(name string, short string, path string, client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := client().getJSON(cmd.Context(), path)
			if err != nil {
				return err
			}
			return writeStructuredJSON(cmd.OutOrStdout(), body)
		},
	}
}

func newNormalizeCommand(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Fetch a web page and print its cleaned main content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rawURL, _ := cmd.Flags().GetString("url")
			if strings.TrimSpace(rawURL) == "" {
				return newUsageError("missing_url", "normalize requires --url")
			}
			body, err := client().postJSON(cmd.Context(), "/api/normalize", map[string]string{"url": strings.TrimSpace(rawURL)})
			if err != nil {
				return err
			}
			return writeStructuredJSON(cmd.OutOrStdout(), body)
		},
	}
	cmd.Flags().String("url", "", "page URL")
	return cmd
}

func newConnectorImportCommand(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connector-import",
		Short: "Import a document through the configured connector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			documentID, _ := cmd.Flags().GetString("document-id")
			if strings.TrimSpace(documentID) == "" {
				return newUsageError("missing_document_id", "connector-import requires --document-id")
			}
			body, err := client().postJSON(cmd.Context(), "/api/connectors/import", map[string]string{"documentId": strings.TrimSpace(documentID)})
			if err != nil {
				return err
			}
			return writeStructuredJSON(cmd.OutOrStdout(), body)
		},
	}
	cmd.Flags().String("document-id", "", "connector document ID")
	return cmd
}
