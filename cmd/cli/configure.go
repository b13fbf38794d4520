package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/searchfix/search_scripts/internal/doctor"
	"github.com/searchfix/search_scripts/internal/utils"
)

const (
	configCommandUseConstant                  = "config"
	configCommandShortDescriptionConstant     = "Inspect or scaffold the searchfix configuration"
	configInitCommandUseConstant              = "init"
	configInitCommandShortDescriptionConstant = "Write a default config.yaml to the current directory"
	configShowCommandUseConstant              = "show"
	configShowCommandShortDescriptionConstant = "Print the resolved configuration"
	flagForceNameConstant                     = "force"
	flagForceDescriptionConstant              = "Overwrite an existing config.yaml"
	configurationFileNameConstant             = "config.yaml"
	configurationFileExistsTemplateConstant   = "%s already exists; pass --force to overwrite"
	configurationWrittenTemplateConstant      = "Wrote %s\n"
	configurationMarshalErrorTemplateConstant = "unable to render configuration: %w"
	configurationWriteErrorTemplateConstant   = "unable to write configuration: %w"
	configurationSourceTemplateConstant       = "# loaded from %s\n"
	configurationFilePermissionsConstant      = 0o644
)

func (application *Application) buildConfigurationCommand() *cobra.Command {
	configCommand := &cobra.Command{
		Use:   configCommandUseConstant,
		Short: configCommandShortDescriptionConstant,
	}

	initCommand := &cobra.Command{
		Use:   configInitCommandUseConstant,
		Short: configInitCommandShortDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			overwriteExisting, _ := command.Flags().GetBool(flagForceNameConstant)
			return application.writeDefaultConfiguration(command, overwriteExisting)
		},
	}
	initCommand.Flags().Bool(flagForceNameConstant, false, flagForceDescriptionConstant)

	showCommand := &cobra.Command{
		Use:   configShowCommandUseConstant,
		Short: configShowCommandShortDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.showResolvedConfiguration(command)
		},
	}

	configCommand.AddCommand(initCommand)
	configCommand.AddCommand(showCommand)

	return configCommand
}

func (application *Application) writeDefaultConfiguration(command *cobra.Command, overwriteExisting bool) error {
	if !overwriteExisting {
		if _, statError := os.Stat(configurationFileNameConstant); statError == nil {
			return fmt.Errorf(configurationFileExistsTemplateConstant, configurationFileNameConstant)
		} else if !errors.Is(statError, os.ErrNotExist) {
			return statError
		}
	}

	defaultConfiguration := ApplicationConfiguration{
		Common: ApplicationCommonConfiguration{
			LogLevel:  string(utils.LogLevelInfo),
			LogFormat: string(utils.LogFormatStructured),
		},
		Doctor: doctor.DefaultConfiguration(),
	}

	renderedConfiguration, marshalError := yaml.Marshal(defaultConfiguration)
	if marshalError != nil {
		return fmt.Errorf(configurationMarshalErrorTemplateConstant, marshalError)
	}

	if writeError := os.WriteFile(configurationFileNameConstant, renderedConfiguration, configurationFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(configurationWriteErrorTemplateConstant, writeError)
	}

	fmt.Fprintf(command.OutOrStdout(), configurationWrittenTemplateConstant, configurationFileNameConstant)
	return nil
}

func (application *Application) showResolvedConfiguration(command *cobra.Command) error {
	if configurationFilePath, pathAvailable := application.commandContextAccessor.ConfigurationFilePath(command.Context()); pathAvailable && len(configurationFilePath) > 0 {
		fmt.Fprintf(command.OutOrStdout(), configurationSourceTemplateConstant, configurationFilePath)
	}

	renderedConfiguration, marshalError := yaml.Marshal(application.configuration)
	if marshalError != nil {
		return fmt.Errorf(configurationMarshalErrorTemplateConstant, marshalError)
	}

	fmt.Fprint(command.OutOrStdout(), string(renderedConfiguration))
	return nil
}
