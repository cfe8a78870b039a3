package cmd

import (
	"fmt"
	"text/tabwriter"

	"clipmaker/infrastructure/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change configuration settings",
	Long: `Read and update individual settings in the configuration file.

Keys use the section.field form shown by 'config list'.

Examples:
  clipmaker config list
  clipmaker config get engine.backend
  clipmaker config set engine.backend wasm
  clipmaker config set recorder.url http://nvr.local:3000`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		return RunConfigListWithDependencies(c, cfgFile, stdout)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		return RunConfigGetWithDependencies(c, cfgFile, args[0], stdout)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting and save the file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		return RunConfigSetWithDependencies(c, cfgFile, args[0], args[1], stdout)
	},
}

// RunConfigListWithDependencies runs the list command with injected dependencies
func RunConfigListWithDependencies(c *config.Config, configPath string, out OutputWriter) error {
	mgr := config.NewConfigManager(c, configPath)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "KEY\tVALUE")
	for _, e := range mgr.List() {
		fmt.Fprintf(w, "%s\t%s\n", e.Key, e.Value)
	}
	return w.Flush()
}

// RunConfigGetWithDependencies runs the get command with injected dependencies
func RunConfigGetWithDependencies(c *config.Config, configPath, key string, out OutputWriter) error {
	value, err := config.NewConfigManager(c, configPath).Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, value)
	return nil
}

// RunConfigSetWithDependencies runs the set command with injected dependencies
func RunConfigSetWithDependencies(c *config.Config, configPath, key, value string, out OutputWriter) error {
	if err := config.NewConfigManager(c, configPath).Set(key, value); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated %s = %s\n", key, value)
	return nil
}
