package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultTolerance   = 10.0
	DefaultFormat      = "json"

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix prefixes every environment variable, e.g. PDFLINKCHECK_LOG_LEVEL
	EnvPrefix = "PDFLINKCHECK"
)

// Keys shared by flags, environment variables and config files
const (
	KeyConfig      = "config"
	KeyMode        = "mode"
	KeyHost        = "host"
	KeyPort        = "port"
	KeyDir         = "dir"
	KeyLogLevel    = "log-level"
	KeyMaxFileSize = "max-file-size"
	KeyTolerance   = "tolerance"
	KeyWorkers     = "workers"
	KeyNoText      = "no-text"
	KeyFormat      = "format"
	KeyOutput      = "output"
	KeyMaxLinks    = "max-links"
	KeyWatch       = "watch"
	KeyCheckRemote = "check-remote"
)

// Config holds all configuration for the link checker and its MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDF configuration
	PDFDirectory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
	ConfigFile  string

	// Analysis configuration
	Tolerance        float64 // Points added around link rectangles when matching text
	Workers          int     // Concurrent page workers; 0 means one per CPU
	NoText           bool    // Skip anchor text lookup
	CheckRemoteFiles bool    // Look up GoToR targets on disk

	// Output configuration
	Format   string // "json", "yaml" or "text"
	Output   string // Output file; empty means stdout
	MaxLinks int    // Rows per text report table; 0 means all
	Watch    bool   // Re-run the analysis when the file changes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:             ModeStdio,
		Host:             DefaultHost,
		Port:             DefaultPort,
		PDFDirectory:     currentDir,
		Version:          "1.0.0",
		ServerName:       "pdflinkcheck",
		LogLevel:         DefaultLogLevel,
		MaxFileSize:      DefaultMaxFileSize,
		Tolerance:        DefaultTolerance,
		Workers:          0,
		CheckRemoteFiles: true,
		Format:           DefaultFormat,
	}
}

// AddGlobalFlags defines the flags shared by every command.
func AddGlobalFlags(fs *pflag.FlagSet) {
	cfg := DefaultConfig()
	fs.String(KeyConfig, "", "Config file (YAML, TOML or JSON)")
	fs.String(KeyLogLevel, cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64(KeyMaxFileSize, cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.Float64(KeyTolerance, cfg.Tolerance, "Points added around link rectangles when matching anchor text")
	fs.Int(KeyWorkers, cfg.Workers, "Concurrent page workers (0 = one per CPU)")
	fs.Bool(KeyNoText, cfg.NoText, "Skip anchor text extraction")
	fs.Bool(KeyCheckRemote, cfg.CheckRemoteFiles, "Check that remote (GoToR) target files exist")
}

// AddOutputFlags defines the report flags of the analyze and validate commands.
func AddOutputFlags(fs *pflag.FlagSet, defaultFormat string) {
	cfg := DefaultConfig()
	fs.StringP(KeyFormat, "f", defaultFormat, "Output format (json, yaml, text)")
	fs.StringP(KeyOutput, "o", "", "Write output to a file; .gz and .zst are compressed")
	fs.Int(KeyMaxLinks, cfg.MaxLinks, "Rows per text report table (0 = all)")
}

// AddWatchFlag defines the watch flag of the analyze command.
func AddWatchFlag(fs *pflag.FlagSet) {
	fs.BoolP(KeyWatch, "w", false, "Re-run the analysis whenever the file changes")
}

// AddServerFlags defines the flags of the serve command.
func AddServerFlags(fs *pflag.FlagSet) {
	cfg := DefaultConfig()
	fs.String(KeyMode, cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP/SSE")
	fs.String(KeyHost, cfg.Host, "Server host address (server mode only)")
	fs.Int(KeyPort, cfg.Port, "Server port (server mode only)")
	fs.String(KeyDir, cfg.PDFDirectory, "Directory the server may read PDF files from")
}

// Load builds the configuration from defaults, an optional config file,
// PDFLINKCHECK_* environment variables and fs, in increasing precedence.
// Only flags defined in fs are bound.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	setupViperEnvironment(v, cfg)
	if err := bindFlagsToViper(v, fs); err != nil {
		return nil, err
	}

	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	populateConfigFromViper(v, cfg)

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyMode, cfg.Mode)
	v.SetDefault(KeyHost, cfg.Host)
	v.SetDefault(KeyPort, cfg.Port)
	v.SetDefault(KeyDir, cfg.PDFDirectory)
	v.SetDefault(KeyLogLevel, cfg.LogLevel)
	v.SetDefault(KeyMaxFileSize, cfg.MaxFileSize)
	v.SetDefault(KeyTolerance, cfg.Tolerance)
	v.SetDefault(KeyWorkers, cfg.Workers)
	v.SetDefault(KeyNoText, cfg.NoText)
	v.SetDefault(KeyCheckRemote, cfg.CheckRemoteFiles)
	v.SetDefault(KeyFormat, cfg.Format)
	v.SetDefault(KeyOutput, cfg.Output)
	v.SetDefault(KeyMaxLinks, cfg.MaxLinks)
	v.SetDefault(KeyWatch, cfg.Watch)
	v.SetDefault(KeyConfig, "")
}

// bindFlagsToViper binds every flag of fs under its own name. A flag's
// default replaces the built-in default so commands can differ.
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		v.SetDefault(f.Name, f.DefValue)
		if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.ConfigFile = v.GetString(KeyConfig)
	cfg.Mode = v.GetString(KeyMode)
	cfg.Host = v.GetString(KeyHost)
	cfg.Port = v.GetInt(KeyPort)
	cfg.PDFDirectory = v.GetString(KeyDir)
	cfg.LogLevel = strings.ToLower(v.GetString(KeyLogLevel))
	cfg.MaxFileSize = v.GetInt64(KeyMaxFileSize)
	cfg.Tolerance = v.GetFloat64(KeyTolerance)
	cfg.Workers = v.GetInt(KeyWorkers)
	cfg.NoText = v.GetBool(KeyNoText)
	cfg.CheckRemoteFiles = v.GetBool(KeyCheckRemote)
	cfg.Format = strings.ToLower(v.GetString(KeyFormat))
	cfg.Output = v.GetString(KeyOutput)
	cfg.MaxLinks = v.GetInt(KeyMaxLinks)
	cfg.Watch = v.GetBool(KeyWatch)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters in server mode.
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance cannot be negative: %g", c.Tolerance)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative: %d", c.Workers)
	}
	if c.MaxLinks < 0 {
		return fmt.Errorf("max links cannot be negative: %d", c.MaxLinks)
	}

	switch c.Format {
	case "json", "yaml", "yml", "text", "txt":
	default:
		return fmt.Errorf("invalid format: %s (must be one of: json, yaml, text)", c.Format)
	}

	return nil
}

// EnsureDirectory creates the PDF directory if it does not exist yet
func (c *Config) EnsureDirectory() error {
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"Tolerance: %g, Workers: %d, NoText: %t, Format: %s}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize,
		c.Tolerance, c.Workers, c.NoText, c.Format)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
