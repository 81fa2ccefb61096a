// Package config provides configuration management for ngssc using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration file is .ngssc.yml; every value can be overridden with an
// NGSSC_ prefixed environment variable (NGSSC_WRAP_AOT_DIST=build) or the
// matching command-line flag. Load applies defaults and validates the
// result, rejecting mutually exclusive options before any file is touched.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/conneroisu/ngssc/internal/errors"
	"github.com/conneroisu/ngssc/internal/injector"
	"github.com/conneroisu/ngssc/internal/logging"
	"github.com/conneroisu/ngssc/internal/registry"
	"github.com/conneroisu/ngssc/internal/types"
)

// Viper keys shared by the config loader and the command-line flags.
const (
	KeyProcessEnv           = "variant.process_env"
	KeyNgEnv                = "variant.ng_env"
	KeyWrapDirectory        = "wrap_aot.directory"
	KeyWrapEnvironmentFile  = "wrap_aot.environment_file"
	KeyWrapDist             = "wrap_aot.dist"
	KeyWrapTokenize         = "wrap_aot.tokenize"
	KeyWrapArtifactPatterns = "wrap_aot.artifact_patterns"
	KeyInsertDirectory      = "insert.directory"
	KeyInsertRecursive      = "insert.recursive"
	KeyInsertDry            = "insert.dry"
	KeyInsertVariables      = "insert.variables"
	KeyInsertDocuments      = "insert.document_patterns"
	KeyInsertArtifacts      = "insert.artifact_patterns"
	KeyLogLevel             = "log.level"
	KeyLogFormat            = "log.format"
)

// keys lists every configuration key so environment overrides reach
// Unmarshal even when neither the file nor a flag mentions the key.
var keys = []string{
	KeyProcessEnv, KeyNgEnv,
	KeyWrapDirectory, KeyWrapEnvironmentFile, KeyWrapDist, KeyWrapTokenize, KeyWrapArtifactPatterns,
	KeyInsertDirectory, KeyInsertRecursive, KeyInsertDry, KeyInsertVariables, KeyInsertDocuments, KeyInsertArtifacts,
	KeyLogLevel, KeyLogFormat,
}

// DefaultEnvironmentFile is the production environment file of an Angular
// project.
const DefaultEnvironmentFile = "src/environments/environment.prod.ts"

type Config struct {
	Variant VariantConfig `yaml:"variant" json:"variant" mapstructure:"variant"`
	Wrap    WrapConfig    `yaml:"wrap_aot" json:"wrap_aot" mapstructure:"wrap_aot"`
	Insert  InsertConfig  `yaml:"insert" json:"insert" mapstructure:"insert"`
	Log     LogConfig     `yaml:"log" json:"log" mapstructure:"log"`
}

type VariantConfig struct {
	ProcessEnv bool `yaml:"process_env" json:"process_env" mapstructure:"process_env"`
	NgEnv      bool `yaml:"ng_env" json:"ng_env" mapstructure:"ng_env"`
}

type WrapConfig struct {
	Directory        string   `yaml:"directory" json:"directory" mapstructure:"directory"`
	EnvironmentFile  string   `yaml:"environment_file" json:"environment_file" mapstructure:"environment_file"`
	Dist             string   `yaml:"dist" json:"dist" mapstructure:"dist"`
	Tokenize         bool     `yaml:"tokenize" json:"tokenize" mapstructure:"tokenize"`
	ArtifactPatterns []string `yaml:"artifact_patterns" json:"artifact_patterns" mapstructure:"artifact_patterns"`
}

type InsertConfig struct {
	Directory        string   `yaml:"directory" json:"directory" mapstructure:"directory"`
	Recursive        bool     `yaml:"recursive" json:"recursive" mapstructure:"recursive"`
	Dry              bool     `yaml:"dry" json:"dry" mapstructure:"dry"`
	Variables        []string `yaml:"variables" json:"variables" mapstructure:"variables"`
	DocumentPatterns []string `yaml:"document_patterns" json:"document_patterns" mapstructure:"document_patterns"`
	ArtifactPatterns []string `yaml:"artifact_patterns" json:"artifact_patterns" mapstructure:"artifact_patterns"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level" mapstructure:"level"`
	Format string `yaml:"format" json:"format" mapstructure:"format"`
}

// ResolvedVariant returns the selected access style.
func (c *Config) ResolvedVariant() (types.Variant, error) {
	return types.ResolveVariant(c.Variant.ProcessEnv, c.Variant.NgEnv)
}

// Logger builds the logger described by the log section.
func (c *Config) Logger() (*logging.StructuredLogger, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, err.Error())
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = c.Log.Format
	return logging.NewLogger(cfg), nil
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.ErrCodeConfigInvalid, "failed to bind "+key)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.ErrCodeConfigInvalid, "failed to decode configuration")
	}

	// Handle slices set via viper from flags or env (workaround for viper slice handling)
	if v.IsSet(KeyWrapArtifactPatterns) && len(config.Wrap.ArtifactPatterns) == 0 {
		config.Wrap.ArtifactPatterns = v.GetStringSlice(KeyWrapArtifactPatterns)
	}
	if v.IsSet(KeyInsertVariables) && len(config.Insert.Variables) == 0 {
		config.Insert.Variables = v.GetStringSlice(KeyInsertVariables)
	}

	// Apply default values for WrapConfig if not set
	if config.Wrap.Directory == "" {
		config.Wrap.Directory = "."
	}
	if config.Wrap.EnvironmentFile == "" {
		config.Wrap.EnvironmentFile = DefaultEnvironmentFile
	}
	if config.Wrap.Dist == "" {
		config.Wrap.Dist = "dist"
	}
	if !v.IsSet(KeyWrapTokenize) {
		config.Wrap.Tokenize = true
	}
	if len(config.Wrap.ArtifactPatterns) == 0 {
		config.Wrap.ArtifactPatterns = append([]string(nil), registry.DefaultArtifactPatterns...)
	}

	// Apply default values for InsertConfig if not set
	if config.Insert.Directory == "" {
		config.Insert.Directory = "."
	}
	if len(config.Insert.DocumentPatterns) == 0 {
		config.Insert.DocumentPatterns = append([]string(nil), injector.DefaultDocumentPatterns...)
	}
	if len(config.Insert.ArtifactPatterns) == 0 {
		config.Insert.ArtifactPatterns = append([]string(nil), registry.DefaultArtifactPatterns...)
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if _, err := config.ResolvedVariant(); err != nil {
		return err
	}

	if err := validateWrapConfig(&config.Wrap); err != nil {
		return err
	}

	if err := validatePath(config.Insert.Directory); err != nil {
		return err
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, "log config: "+err.Error())
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("log config: unsupported format %q (supported: text, json)", config.Log.Format))
	}

	return nil
}

// validateWrapConfig validates wrap-aot configuration values
func validateWrapConfig(config *WrapConfig) error {
	for _, path := range []string{config.Directory, config.EnvironmentFile, config.Dist} {
		if err := validatePath(path); err != nil {
			return err
		}
	}

	// The environment file and the output directory live inside the project
	for _, path := range []string{config.EnvironmentFile, config.Dist} {
		if filepath.IsAbs(path) {
			return errors.ErrInvalidPath(path, "must be relative to the project directory")
		}
		if clean := filepath.Clean(path); clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return errors.ErrInvalidPath(path, "points outside of the project directory")
		}
	}

	return nil
}

// validatePath validates a file path
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.ErrInvalidPath(path, "empty path")
	}
	if strings.ContainsRune(path, 0) {
		return errors.ErrInvalidPath(path, "contains a NUL byte")
	}
	return nil
}
