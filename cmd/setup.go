package cmd

import (
	"fmt"
	"os"
	"strconv"

	"clipmaker/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
	MultiSelect(message string, options []string) ([]string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) MultiSelect(message string, options []string) ([]string, error) {
	var result []string
	prompt := &survey.MultiSelect{
		Message:  message,
		Options:  options,
		PageSize: 15,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through choosing the ffmpeg engine, where clips are
saved, the recorder to pull recordings from and optional Google Drive uploads.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = "config/config.yaml"
	}
	return RunSetupWithPrompter(DefaultPrompter, path, stdout)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, output OutputWriter) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(output, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(output, "Welcome to clipmaker setup!")
	fmt.Fprintln(output)

	cfg := config.Default()

	if err := promptEngine(prompter, cfg); err != nil {
		return err
	}
	if err := promptOutput(prompter, cfg); err != nil {
		return err
	}
	if err := promptDrive(prompter, cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(output)
	fmt.Fprintf(output, "Configuration saved to %s\n", configPath)
	return nil
}

func promptEngine(prompter Prompter, cfg *config.Config) error {
	backend, err := prompter.Select("Which ffmpeg engine?", []string{config.BackendNative, config.BackendWasm}, cfg.Engine.Backend)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Engine.Backend = backend

	if backend == config.BackendWasm {
		base, err := prompter.Input("Directory or URL holding the ffmpeg WASI module?", "")
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if base == "" {
			return fmt.Errorf("module location is required for the wasm engine")
		}
		cfg.Engine.BaseLocation = base

		module, err := prompter.Input("Module file name?", cfg.Engine.Module)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if module != "" {
			cfg.Engine.Module = module
		}

		pages, err := prompter.Input("Memory limit in 64KiB pages (0 for no limit)?", "0")
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if pages != "" {
			n, err := strconv.ParseUint(pages, 10, 32)
			if err != nil {
				return fmt.Errorf("memory limit must be a whole number")
			}
			cfg.Engine.MemoryLimitPages = uint32(n)
		}
		return nil
	}

	executable, err := prompter.Input("ffmpeg executable (name on PATH or full path)?", cfg.Engine.Executable)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if executable != "" {
		cfg.Engine.Executable = executable
	}
	return nil
}

func promptOutput(prompter Prompter, cfg *config.Config) error {
	dir, err := prompter.Input("Where should clips be saved?", cfg.Output.Directory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if dir != "" {
		cfg.Output.Directory = dir
	}

	url, err := prompter.Input("Recorder URL?", cfg.Recorder.URL)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if url != "" {
		cfg.Recorder.URL = url
	}
	return nil
}

func promptDrive(prompter Prompter, cfg *config.Config) error {
	enable, err := prompter.Confirm("Upload clips to Google Drive?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !enable {
		return nil
	}

	credentials, err := prompter.Input("Path to Google service account credentials?", "credentials.json")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentials == "" {
		credentials = "credentials.json"
	}
	cfg.Drive.CredentialsFile = credentials

	folder, err := prompter.Input("Google Drive folder ID for clips?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if folder == "" {
		return fmt.Errorf("folder ID is required")
	}
	cfg.Drive.FolderID = folder

	return nil
}
