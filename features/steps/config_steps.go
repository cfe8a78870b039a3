//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clipmaker/cmd"
	"clipmaker/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir         string
	configPath      string
	originalContent string
	output          *bytes.Buffer
	err             error
}

var SharedConfigContext = &configContext{}

// MockPrompter implements cmd.Prompter for testing. Each kind of prompt
// takes the next queued response; an exhausted queue falls back to the default.
type MockPrompter struct {
	inputs       []string
	confirms     []bool
	selects      []string
	multiSelects [][]string
	prompts      []string
}

func (m *MockPrompter) Input(message string, defaultValue string) (string, error) {
	m.prompts = append(m.prompts, message)
	if len(m.inputs) == 0 {
		if defaultValue != "" {
			return defaultValue, nil
		}
		return "", fmt.Errorf("no more input responses available for message: %s", message)
	}
	response := m.inputs[0]
	m.inputs = m.inputs[1:]
	return response, nil
}

func (m *MockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	m.prompts = append(m.prompts, message)
	if len(m.confirms) == 0 {
		return defaultValue, nil
	}
	response := m.confirms[0]
	m.confirms = m.confirms[1:]
	return response, nil
}

func (m *MockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	m.prompts = append(m.prompts, message)
	if len(m.selects) == 0 {
		return defaultValue, nil
	}
	response := m.selects[0]
	m.selects = m.selects[1:]
	for _, o := range options {
		if o == response {
			return response, nil
		}
	}
	return "", fmt.Errorf("%q is not one of %v", response, options)
}

func (m *MockPrompter) MultiSelect(message string, options []string) ([]string, error) {
	m.prompts = append(m.prompts, message)
	if len(m.multiSelects) == 0 {
		return nil, fmt.Errorf("no more multi-select responses available for message: %s", message)
	}
	response := m.multiSelects[0]
	m.multiSelects = m.multiSelects[1:]
	return response, nil
}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConfigContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "clipmaker-config-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config", "config.yaml")
		testCtx.originalContent = ""
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^no config file exists$`, testCtx.noConfigFileExists)
	ctx.Step(`^a config file exists$`, testCtx.aConfigFileExists)
	ctx.Step(`^I run setup choosing "([^"]*)" with inputs:$`, testCtx.iRunSetupChoosingWithInputs)
	ctx.Step(`^I run setup choosing "([^"]*)" with confirmations "([^"]*)" and inputs:$`, testCtx.iRunSetupChoosingWithConfirmationsAndInputs)
	ctx.Step(`^I run setup declining to overwrite$`, testCtx.iRunSetupDecliningToOverwrite)
	ctx.Step(`^I set config "([^"]*)" to "([^"]*)"$`, testCtx.iSetConfigTo)
	ctx.Step(`^I get config "([^"]*)"$`, testCtx.iGetConfig)
	ctx.Step(`^I list the config$`, testCtx.iListTheConfig)
	ctx.Step(`^the config command should succeed$`, testCtx.theConfigCommandShouldSucceed)
	ctx.Step(`^the config command should fail with "([^"]*)"$`, testCtx.theConfigCommandShouldFailWith)
	ctx.Step(`^the config output should contain "([^"]*)"$`, testCtx.theConfigOutputShouldContain)
	ctx.Step(`^the config file should have "([^"]*)" set to "([^"]*)"$`, testCtx.theConfigFileShouldHaveSetTo)
	ctx.Step(`^no config file should be written$`, testCtx.noConfigFileShouldBeWritten)
	ctx.Step(`^the existing config should be unchanged$`, testCtx.theExistingConfigShouldBeUnchanged)
}

func (s *configContext) noConfigFileExists() error {
	return os.MkdirAll(filepath.Dir(s.configPath), 0755)
}

func (s *configContext) aConfigFileExists() error {
	cfg := config.Default()
	cfg.Output.Directory = "/srv/clips"
	if err := config.Save(cfg, s.configPath); err != nil {
		return err
	}
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}
	s.originalContent = string(data)
	return nil
}

func (s *configContext) iRunSetupChoosingWithInputs(backend string, table *godog.Table) error {
	return s.runSetup(&MockPrompter{selects: []string{backend}, inputs: tableValues(table)})
}

func (s *configContext) iRunSetupChoosingWithConfirmationsAndInputs(backend, confirmations string, table *godog.Table) error {
	var confirms []bool
	for _, c := range splitList(confirmations) {
		confirms = append(confirms, c == "yes")
	}
	return s.runSetup(&MockPrompter{selects: []string{backend}, confirms: confirms, inputs: tableValues(table)})
}

func (s *configContext) iRunSetupDecliningToOverwrite() error {
	return s.runSetup(&MockPrompter{confirms: []bool{false}})
}

func (s *configContext) runSetup(prompter *MockPrompter) error {
	s.err = cmd.RunSetupWithPrompter(prompter, s.configPath, s.output)
	return nil
}

func (s *configContext) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (s *configContext) iSetConfigTo(key, value string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	s.err = cmd.RunConfigSetWithDependencies(cfg, s.configPath, key, value, s.output)
	return nil
}

func (s *configContext) iGetConfig(key string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	s.err = cmd.RunConfigGetWithDependencies(cfg, s.configPath, key, s.output)
	return nil
}

func (s *configContext) iListTheConfig() error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	s.err = cmd.RunConfigListWithDependencies(cfg, s.configPath, s.output)
	return nil
}

func (s *configContext) theConfigCommandShouldSucceed() error {
	if s.err != nil {
		return fmt.Errorf("expected success, got %v", s.err)
	}
	return nil
}

func (s *configContext) theConfigCommandShouldFailWith(text string) error {
	if s.err == nil {
		return fmt.Errorf("expected an error containing %q", text)
	}
	if !strings.Contains(s.err.Error(), text) {
		return fmt.Errorf("expected error containing %q, got %q", text, s.err.Error())
	}
	return nil
}

func (s *configContext) theConfigOutputShouldContain(text string) error {
	if !strings.Contains(s.output.String(), text) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", text, s.output.String())
	}
	return nil
}

func (s *configContext) theConfigFileShouldHaveSetTo(key, expected string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	got, err := config.NewConfigManager(cfg, s.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", key, expected, got)
	}
	return nil
}

func (s *configContext) noConfigFileShouldBeWritten() error {
	if _, err := os.Stat(s.configPath); err == nil {
		return fmt.Errorf("expected no config file at %s", s.configPath)
	}
	return nil
}

func (s *configContext) theExistingConfigShouldBeUnchanged() error {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}
	if string(data) != s.originalContent {
		return fmt.Errorf("config was modified:\n%s", string(data))
	}
	return nil
}

// tableValues returns the second column of a "| prompt | value |" table
func tableValues(table *godog.Table) []string {
	var values []string
	for _, row := range table.Rows {
		if len(row.Cells) < 2 {
			continue
		}
		values = append(values, row.Cells[1].Value)
	}
	return values
}
