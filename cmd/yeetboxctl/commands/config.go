package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/yeetbox/yeetbox/internal/config"
)

var configSchemaOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate a JSON schema for the yeetboxd configuration file",
	Long: `Generate a JSON schema describing yeetboxd's configuration file, for
IDE autocompletion or validation.

Examples:
  # Print schema to stdout
  yeetboxctl config schema

  # Save schema to file
  yeetboxctl config schema --output config.schema.json`,
	RunE: runConfigSchema,
}

func init() {
	configCmd.AddCommand(configSchemaCmd)
	configSchemaCmd.Flags().StringVarP(&configSchemaOutput, "output", "o", "", "output file (default: stdout)")
}

func runConfigSchema(cmd *cobra.Command, args []string) error {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "yeetboxd Configuration"
	schema.Description = "Configuration schema for the yeetboxd server"

	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}

	if configSchemaOutput != "" {
		if err := os.WriteFile(configSchemaOutput, schemaJSON, 0o644); err != nil {
			return fmt.Errorf("write schema file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "JSON schema written to %s\n", configSchemaOutput)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(schemaJSON))
	return nil
}
