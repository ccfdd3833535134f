package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yeetbox/yeetbox/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Write a starter yeetboxd configuration file, including a freshly
generated session secret.

By default the file is written to $XDG_CONFIG_HOME/yeetbox/config.yaml.
Use --config to choose a different path, and --force to overwrite an
existing file.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	cfg, err := config.SampleConfig()
	if err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Printf("  2. Start the server with: yeetboxd start --config %s\n", path)
	return nil
}
