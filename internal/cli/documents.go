package cli

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const defaultDeckPath = "notare.pptx"

// providerSettings mirrors the settings JSON accepted by the server.
type providerSettings struct {
	Provider   string `json:"provider"`
	APIKey     string `json:"api_key,omitempty"`
	Model      string `json:"model,omitempty"`
	Endpoint   string `json:"endpoint,omitempty"`
	APIVersion string `json:"api_version,omitempty"`
}

func addDocumentFlags(flags *pflag.FlagSet) {
	flags.String("html", "", "path of the highlighted document, - for stdin")
	flags.String("format", "html", "document format: html or markdown")
	flags.String("provider", "", "outline provider: openai, azure, gemini or llama")
	flags.String("api-key", "", "provider API key (env NOTARE_API_KEY)")
	flags.String("model", "", "provider model or deployment")
	flags.String("endpoint", "", "provider endpoint")
	flags.String("api-version", "", "Azure OpenAI API version")
}

// documentFields reads the document and provider flags into form fields.
// Provider flags fall back to NOTARE_* environment variables.
func documentFields(cmd *cobra.Command, v *viper.Viper) (map[string]string, error) {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	source := strings.TrimSpace(v.GetString("html"))
	if source == "" {
		return nil, newUsageError("missing_html", "%s requires --html", cmd.Name())
	}
	document, err := readDocument(cmd.InOrStdin(), source)
	if err != nil {
		return nil, newUsageError("invalid_arguments", "read %s: %v", source, err)
	}

	settings := providerSettings{
		Provider:   strings.TrimSpace(v.GetString("provider")),
		APIKey:     strings.TrimSpace(v.GetString("api-key")),
		Model:      strings.TrimSpace(v.GetString("model")),
		Endpoint:   strings.TrimSpace(v.GetString("endpoint")),
		APIVersion: strings.TrimSpace(v.GetString("api-version")),
	}
	if settings.Provider == "" {
		return nil, newUsageError("missing_provider", "%s requires --provider", cmd.Name())
	}
	encoded, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"settings": string(encoded),
		"html":     document,
		"format":   strings.TrimSpace(v.GetString("format")),
	}, nil
}

func readDocument(stdin io.Reader, source string) (string, error) {
	var (
		data []byte
		err  error
	)
	if source == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func newOutlineCommand(v *viper.Viper, client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Print the slide outline for a highlighted document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields, err := documentFields(cmd, v)
			if err != nil {
				return err
			}
			res, err := client().postMultipart(cmd.Context(), "/api/outline", multipartForm{fields: fields})
			if err != nil {
				return err
			}
			return writeStructuredJSON(cmd.OutOrStdout(), res.body)
		},
	}
	addDocumentFlags(cmd.Flags())
	return cmd
}

func newGenerateCommand(v *viper.Viper, client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a presentation from a highlighted document",
		Long: `generate uploads the document and an optional template and writes
the returned presentation to --out.

Examples:
  notare generate --html notes.html --provider openai --api-key $KEY
  notare generate --html notes.md --format markdown --template brand.pptx --out q3.pptx --provider llama`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields, err := documentFields(cmd, v)
			if err != nil {
				return err
			}
			templatePath, _ := cmd.Flags().GetString("template")
			out, _ := cmd.Flags().GetString("out")
			if strings.TrimSpace(out) == "" {
				return newUsageError("missing_out", "generate requires --out")
			}

			res, err := client().postMultipart(cmd.Context(), "/api/pptx", multipartForm{
				fields:   fields,
				fileName: "template",
				filePath: strings.TrimSpace(templatePath),
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, res.body, 0o644); err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"output":      out,
				"bytes":       len(res.body),
				"summary":     res.header.Get("X-Template-Summary"),
				"diagnostics": res.header.Get("X-Template-Diagnostics"),
			})
		},
	}
	addDocumentFlags(cmd.Flags())
	cmd.Flags().String("template", "", "path of a .pptx template; the server default is used when empty")
	cmd.Flags().String("out", defaultDeckPath, "where to write the presentation")
	return cmd
}

func newValidateTemplateCommand(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-template",
		Short: "Report which layouts a template provides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			templatePath, _ := cmd.Flags().GetString("template")
			res, err := client().postMultipart(cmd.Context(), "/api/template/validate", multipartForm{
				fileName: "template",
				filePath: strings.TrimSpace(templatePath),
			})
			if err != nil {
				return err
			}
			return writeStructuredJSON(cmd.OutOrStdout(), res.body)
		},
	}
	cmd.Flags().String("template", "", "path of a .pptx template; validates the server default when empty")
	return cmd
}
