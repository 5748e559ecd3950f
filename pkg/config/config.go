/*
Package config manages TOML config for rootsearch.
*/
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bastiangx/rootsearch/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Search   SearchConfig   `toml:"search"`
	Ranking  RankingConfig  `toml:"ranking"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Metadata MetadataConfig `toml:"metadata"`
	CLI      CliConfig      `toml:"cli"`
}

// SearchConfig bounds queries and results.
type SearchConfig struct {
	Limit         int  `toml:"limit"`
	MinQuery      int  `toml:"min_query"`
	MaxQuery      int  `toml:"max_query"`
	FuzzyFallback bool `toml:"fuzzy_fallback"`
}

// RankingConfig locates the frecency database.
type RankingConfig struct {
	DataDir  string `toml:"data_dir"`
	InMemory bool   `toml:"in_memory"`
	ItemType string `toml:"item_type"`
}

// CatalogConfig points at the TOML item catalog.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// MetadataConfig locates the alias and open count database.
type MetadataConfig struct {
	DBPath string `toml:"db_path"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. $XDG_CONFIG_HOME or ~/.config (%APPDATA% on windows)
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	if configHome, err := utils.ConfigHome(); err == nil {
		primaryPath := filepath.Join(configHome, utils.AppName)
		if result := utils.CheckDirStatus(primaryPath); result.Writable {
			return primaryPath, nil
		}
	} else {
		log.Errorf("Failed to get home directory: %v", err)
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		macOSPath := filepath.Join(homeDir, "Library", "Application Support", utils.AppName)
		if result := utils.CheckDirStatus(macOSPath); result.Writable {
			return macOSPath, nil
		}
	}

	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [ConfigDir]/rootsearch/config.toml
// 3. Builtin defaults
//
// Relative paths inside the config are resolved against the directory of
// the file that was loaded.
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				config.ResolvePaths(filepath.Dir(customConfigPath))
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		config := DefaultConfig()
		config.Ranking.InMemory = true
		return config, "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		config = DefaultConfig()
	}
	config.ResolvePaths(filepath.Dir(defaultPath))
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Limit:         50,
			MinQuery:      0,
			MaxQuery:      64,
			FuzzyFallback: true,
		},
		Ranking: RankingConfig{
			DataDir:  "frecency",
			InMemory: false,
			ItemType: "root",
		},
		Catalog: CatalogConfig{
			Path: "catalog.toml",
		},
		Metadata: MetadataConfig{
			DBPath: "metadata.db",
		},
		CLI: CliConfig{
			DefaultLimit: 10,
		},
	}
}

// ResolvePaths turns relative and "~/" paths into absolute ones rooted at baseDir.
func (c *Config) ResolvePaths(baseDir string) {
	c.Ranking.DataDir = utils.ExpandPath(c.Ranking.DataDir, baseDir)
	c.Catalog.Path = utils.ExpandPath(c.Catalog.Path, baseDir)
	c.Metadata.DBPath = utils.ExpandPath(c.Metadata.DBPath, baseDir)
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file. Unset keys keep their defaults; a file
// that fails to decode as a whole is salvaged section by section.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.clamp()
	return config, nil
}

// clamp replaces nonsensical values with defaults.
func (c *Config) clamp() {
	def := DefaultConfig()
	if c.Search.Limit <= 0 {
		log.Warnf("search.limit must be positive, using %d", def.Search.Limit)
		c.Search.Limit = def.Search.Limit
	}
	if c.Search.MinQuery < 0 {
		c.Search.MinQuery = 0
	}
	if c.Search.MaxQuery > 0 && c.Search.MaxQuery < c.Search.MinQuery {
		log.Warnf("search.max_query %d below min_query %d, using %d", c.Search.MaxQuery, c.Search.MinQuery, def.Search.MaxQuery)
		c.Search.MaxQuery = def.Search.MaxQuery
	}
	if c.Ranking.ItemType == "" {
		c.Ranking.ItemType = def.Ranking.ItemType
	}
	if strings.Contains(c.Ranking.ItemType, ":") {
		log.Warnf("ranking.item_type %q must not contain ':', using %q", c.Ranking.ItemType, def.Ranking.ItemType)
		c.Ranking.ItemType = def.Ranking.ItemType
	}
	if c.CLI.DefaultLimit <= 0 {
		c.CLI.DefaultLimit = def.CLI.DefaultLimit
	}
}

// tryPartialParse attempts to parse a TOML file
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(tempConfig, "ranking"); ok {
		extractRankingConfig(section, &config.Ranking)
	}
	if section, ok := utils.ExtractSection(tempConfig, "catalog"); ok {
		if val, ok := utils.ExtractString(section, "path"); ok {
			config.Catalog.Path = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "metadata"); ok {
		if val, ok := utils.ExtractString(section, "db_path"); ok {
			config.Metadata.DBPath = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		if val, ok := utils.ExtractInt64(section, "default_limit"); ok {
			config.CLI.DefaultLimit = val
		}
	}
	config.clamp()
	return config, nil
}

func extractSearchConfig(data map[string]any, search *SearchConfig) {
	if val, ok := utils.ExtractInt64(data, "limit"); ok {
		search.Limit = val
	}
	if val, ok := utils.ExtractInt64(data, "min_query"); ok {
		search.MinQuery = val
	}
	if val, ok := utils.ExtractInt64(data, "max_query"); ok {
		search.MaxQuery = val
	}
	if val, ok := utils.ExtractBool(data, "fuzzy_fallback"); ok {
		search.FuzzyFallback = val
	}
}

func extractRankingConfig(data map[string]any, ranking *RankingConfig) {
	if val, ok := utils.ExtractString(data, "data_dir"); ok {
		ranking.DataDir = val
	}
	if val, ok := utils.ExtractBool(data, "in_memory"); ok {
		ranking.InMemory = val
	}
	if val, ok := utils.ExtractString(data, "item_type"); ok {
		ranking.ItemType = val
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
