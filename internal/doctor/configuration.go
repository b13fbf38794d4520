package doctor

import (
	"path/filepath"
	"strings"

	"github.com/searchfix/search_scripts/internal/auditlog"
)

const (
	defaultApplicationNameConstant         = "Microsoft Outlook"
	defaultPreferencesDomainConstant       = "com.microsoft.Outlook"
	defaultSearchIndexRelativePathConstant = "Library/Group Containers/UBF8T346G9.Office/Outlook/Outlook 15 Profiles/Main Profile/Search"

	applicationNameConfigKeyConstant     = "application_name"
	preferencesDomainConfigKeyConstant   = "preferences_domain"
	searchIndexPathConfigKeyConstant     = "search_index_path"
	logFileConfigKeyConstant             = "log_file"
	verboseLoggingConfigKeyConstant      = "verbose_logging"
	autoOpenLogConfigKeyConstant         = "auto_open_log"
	confirmBeforeDeleteConfigKeyConstant = "confirm_before_delete"
	configurationKeySeparatorConstant    = "."
)

// CommandConfiguration captures the doctor settings loaded from configuration
// files and environment overrides.
type CommandConfiguration struct {
	ApplicationName     string `mapstructure:"application_name" yaml:"application_name"`
	PreferencesDomain   string `mapstructure:"preferences_domain" yaml:"preferences_domain"`
	SearchIndexPath     string `mapstructure:"search_index_path" yaml:"search_index_path"`
	LogFile             string `mapstructure:"log_file" yaml:"log_file"`
	VerboseLogging      bool   `mapstructure:"verbose_logging" yaml:"verbose_logging"`
	AutoOpenLog         bool   `mapstructure:"auto_open_log" yaml:"auto_open_log"`
	ConfirmBeforeDelete bool   `mapstructure:"confirm_before_delete" yaml:"confirm_before_delete"`
}

// DefaultConfiguration returns the built-in doctor settings.
func DefaultConfiguration() CommandConfiguration {
	return CommandConfiguration{
		ApplicationName:     defaultApplicationNameConstant,
		PreferencesDomain:   defaultPreferencesDomainConstant,
		SearchIndexPath:     defaultSearchIndexRelativePathConstant,
		ConfirmBeforeDelete: true,
	}
}

// DefaultConfigurationValues exposes the default settings keyed beneath the
// provided configuration key for registration with the configuration loader.
func DefaultConfigurationValues(configurationKey string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		configurationKey + configurationKeySeparatorConstant + applicationNameConfigKeyConstant:     defaults.ApplicationName,
		configurationKey + configurationKeySeparatorConstant + preferencesDomainConfigKeyConstant:   defaults.PreferencesDomain,
		configurationKey + configurationKeySeparatorConstant + searchIndexPathConfigKeyConstant:     defaults.SearchIndexPath,
		configurationKey + configurationKeySeparatorConstant + logFileConfigKeyConstant:             defaults.LogFile,
		configurationKey + configurationKeySeparatorConstant + verboseLoggingConfigKeyConstant:      defaults.VerboseLogging,
		configurationKey + configurationKeySeparatorConstant + autoOpenLogConfigKeyConstant:         defaults.AutoOpenLog,
		configurationKey + configurationKeySeparatorConstant + confirmBeforeDeleteConfigKeyConstant: defaults.ConfirmBeforeDelete,
	}
}

// WithDefaults fills empty fields from the built-in settings.
func (configuration CommandConfiguration) WithDefaults() CommandConfiguration {
	resolved := configuration
	if len(strings.TrimSpace(resolved.ApplicationName)) == 0 {
		resolved.ApplicationName = defaultApplicationNameConstant
	}
	if len(strings.TrimSpace(resolved.PreferencesDomain)) == 0 {
		resolved.PreferencesDomain = defaultPreferencesDomainConstant
	}
	if len(strings.TrimSpace(resolved.SearchIndexPath)) == 0 {
		resolved.SearchIndexPath = defaultSearchIndexRelativePathConstant
	}
	return resolved
}

// ResolveSearchIndexPath anchors a relative search index path beneath the home directory.
func (configuration CommandConfiguration) ResolveSearchIndexPath(homeDirectory string) string {
	if filepath.IsAbs(configuration.SearchIndexPath) {
		return configuration.SearchIndexPath
	}
	return filepath.Join(homeDirectory, filepath.FromSlash(configuration.SearchIndexPath))
}

// ResolveLogFilePath resolves the audit log destination, falling back to the
// well-known location under the home directory.
func (configuration CommandConfiguration) ResolveLogFilePath() (string, error) {
	trimmedLogFile := strings.TrimSpace(configuration.LogFile)
	if len(trimmedLogFile) > 0 {
		return trimmedLogFile, nil
	}
	return auditlog.DefaultLogFilePath()
}
