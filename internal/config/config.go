package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

type DeleteMode string

const (
	DeleteModeArchive DeleteMode = "archive"
	DeleteModeHard    DeleteMode = "hard"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Environment variables that override file configuration.
const (
	EnvDatabaseURL = "LEADBOARD_DATABASE_URL"
	EnvDBDriver    = "LEADBOARD_DB_DRIVER"
	EnvJWTSecret   = "LEADBOARD_JWT_SECRET"
	EnvHTTPBind    = "LEADBOARD_HTTP_BIND"
	EnvLogLevel    = "LEADBOARD_LOG_LEVEL"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Delete   DeleteConfig   `toml:"delete"`
	Board    BoardConfig    `toml:"board"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
	Keys     KeyConfig      `toml:"keys"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
	URL    string `toml:"url"`
}

type DeleteConfig struct {
	DefaultMode DeleteMode `toml:"default_mode"`
}

// BoardConfig seeds new boards and sizes cards.
type BoardConfig struct {
	LeadColumns []ColumnConfig `toml:"lead_columns"`
	TaskColumns []ColumnConfig `toml:"task_columns"`
	CardWidth   int            `toml:"card_width"`
}

type ColumnConfig struct {
	Title string `toml:"title"`
	Color string `toml:"color"`
}

type ServerConfig struct {
	HTTPBind    string   `toml:"http_bind"`
	APIPrefix   string   `toml:"api_prefix"`
	MCPEndpoint string   `toml:"mcp_endpoint"`
	JWTSecret   string   `toml:"jwt_secret"`
	TokenTTL    string   `toml:"token_ttl"`
	CORSOrigins []string `toml:"cors_origins"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// KeyConfig remaps the board actions that are most often rebound.
type KeyConfig struct {
	NewCard  string `toml:"new_card"`
	EditCard string `toml:"edit_card"`
	Grab     string `toml:"grab"`
	Copy     string `toml:"copy"`
	Reload   string `toml:"reload"`
}

func defaultLeadColumns() []ColumnConfig {
	return []ColumnConfig{
		{Title: "New", Color: "blue"},
		{Title: "Contacted", Color: "teal"},
		{Title: "Proposal", Color: "yellow"},
		{Title: "Won", Color: "green"},
		{Title: "Lost", Color: "red"},
	}
}

func defaultTaskColumns() []ColumnConfig {
	return []ColumnConfig{
		{Title: "To do", Color: "gray"},
		{Title: "In progress", Color: "blue"},
		{Title: "Done", Color: "green"},
	}
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   dbPath,
		},
		Delete: DeleteConfig{
			DefaultMode: DeleteModeArchive,
		},
		Board: BoardConfig{
			LeadColumns: defaultLeadColumns(),
			TaskColumns: defaultTaskColumns(),
			CardWidth:   28,
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8420",
			APIPrefix:   "/api/v1",
			MCPEndpoint: "/mcp",
			TokenTTL:    "72h",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".leadboard/log",
			},
		},
		Keys: KeyConfig{
			NewCard:  "n",
			EditCard: "e",
			Grab:     "space",
			Copy:     "y",
			Reload:   "r",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	// column templates replace the defaults rather than merging by index
	var templates struct {
		Board struct {
			LeadColumns []ColumnConfig `toml:"lead_columns"`
			TaskColumns []ColumnConfig `toml:"task_columns"`
		} `toml:"board"`
	}
	if err := toml.Unmarshal(content, &templates); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if templates.Board.LeadColumns != nil {
		cfg.Board.LeadColumns = templates.Board.LeadColumns
	}
	if templates.Board.TaskColumns != nil {
		cfg.Board.TaskColumns = templates.Board.TaskColumns
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ReadEnv collects LEADBOARD_* overrides from the .env file at dotenvPath
// (when present) and the process environment. Process values win.
func ReadEnv(dotenvPath string) (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(dotenvPath) != "" {
		values, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			for k, v := range values {
				if strings.HasPrefix(k, "LEADBOARD_") {
					out[k] = v
				}
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", dotenvPath, err)
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, "LEADBOARD_") {
			out[k] = v
		}
	}
	return out, nil
}

// ApplyEnv overlays environment overrides onto c and validates the result.
func (c Config) ApplyEnv(env map[string]string) (Config, error) {
	set := func(key string, dst *string) {
		if v, ok := env[key]; ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvDatabaseURL, &c.Database.URL)
	set(EnvDBDriver, &c.Database.Driver)
	set(EnvJWTSecret, &c.Server.JWTSecret)
	set(EnvHTTPBind, &c.Server.HTTPBind)
	set(EnvLogLevel, &c.Logging.Level)
	// a bare URL implies the hosted store
	if _, ok := env[EnvDatabaseURL]; ok && c.Database.URL != "" {
		if _, driverSet := env[EnvDBDriver]; !driverSet {
			c.Database.Driver = DriverPostgres
		}
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
	case "", DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("database path is required")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Database.URL) == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database.driver: %q", c.Database.Driver)
	}

	switch c.Delete.DefaultMode {
	case DeleteModeArchive, DeleteModeHard:
	default:
		return fmt.Errorf("invalid delete.default_mode: %q", c.Delete.DefaultMode)
	}

	for name, columns := range map[string][]ColumnConfig{
		"board.lead_columns": c.Board.LeadColumns,
		"board.task_columns": c.Board.TaskColumns,
	} {
		if len(columns) == 0 {
			return fmt.Errorf("%s must include at least one column", name)
		}
		seen := map[string]struct{}{}
		for idx, column := range columns {
			title := strings.ToLower(strings.TrimSpace(column.Title))
			if title == "" {
				return fmt.Errorf("%s[%d].title is required", name, idx)
			}
			if _, ok := seen[title]; ok {
				return fmt.Errorf("%s[%d].title is duplicated: %s", name, idx, column.Title)
			}
			seen[title] = struct{}{}
		}
	}
	if c.Board.CardWidth != 0 && (c.Board.CardWidth < 16 || c.Board.CardWidth > 60) {
		return fmt.Errorf("board.card_width must be between 16 and 60, got %d", c.Board.CardWidth)
	}

	if strings.TrimSpace(c.Server.HTTPBind) == "" {
		return errors.New("server.http_bind is required")
	}
	for key, value := range map[string]string{
		"server.api_prefix":   c.Server.APIPrefix,
		"server.mcp_endpoint": c.Server.MCPEndpoint,
	} {
		if !strings.HasPrefix(strings.TrimSpace(value), "/") {
			return fmt.Errorf("%s must start with /: %q", key, value)
		}
	}
	if _, err := c.TokenTTL(); err != nil {
		return err
	}

	if _, err := charmLog.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	return nil
}

// TokenTTL parses server.token_ttl, defaulting to 72h.
func (c Config) TokenTTL() (time.Duration, error) {
	raw := strings.TrimSpace(c.Server.TokenTTL)
	if raw == "" {
		return 72 * time.Hour, nil
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		return 0, fmt.Errorf("invalid server.token_ttl: %q", c.Server.TokenTTL)
	}
	return ttl, nil
}

// LogLevel returns the parsed logging level.
func (c Config) LogLevel() charmLog.Level {
	level, err := charmLog.ParseLevel(strings.TrimSpace(c.Logging.Level))
	if err != nil {
		return charmLog.InfoLevel
	}
	return level
}

// Write saves cfg as TOML at path, creating its directory. It refuses to
// overwrite an existing file.
func Write(path string, cfg Config) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	return f.Close()
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
