package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/evanschultz/leadboard/internal/adapters/server"
	"github.com/evanschultz/leadboard/internal/adapters/server/common"
	"github.com/evanschultz/leadboard/internal/adapters/storage/postgres"
	"github.com/evanschultz/leadboard/internal/app"
	"github.com/evanschultz/leadboard/internal/config"
)

// Snapshot file formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func newServeCommand(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and MCP endpoint",
		Long: `Serve the board API under /api/v1 and the MCP tools at /mcp.

When server.jwt_secret (or LEADBOARD_JWT_SECRET) is set, both require a
bearer token; mint one with "leadboard token".

Examples:
  leadboard serve
  leadboard serve --bind 0.0.0.0:8420`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bind, _ := cmd.Flags().GetString("bind")

			ss, err := s.open(cmd.Context(), "serve", true)
			if err != nil {
				return err
			}
			defer ss.Close()
			if _, err := ss.svc.EnsureDefaultBoards(cmd.Context()); err != nil {
				return fmt.Errorf("ensure default boards: %w", err)
			}

			cfg := ss.cfg.Server
			if strings.TrimSpace(bind) != "" {
				cfg.HTTPBind = bind
			}
			ss.logger.Info("command flow start", "command", "serve")
			err = serveCommandRunner(cmd.Context(), server.Config{
				HTTPBind:      cfg.HTTPBind,
				APIEndpoint:   cfg.APIPrefix,
				MCPEndpoint:   cfg.MCPEndpoint,
				ServerName:    s.appName,
				ServerVersion: version,
				JWTSecret:     cfg.JWTSecret,
				CORSOrigins:   cfg.CORSOrigins,
			}, server.Dependencies{
				Service: common.NewAppServiceAdapter(ss.svc),
				Logger:  ss.logger.Server(),
			})
			if err != nil {
				ss.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			ss.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().String("bind", "", "listen address, overriding server.http_bind")
	return cmd
}

func newPathsCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and database paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := s.resolvePaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", s.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", s.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "env: %s\n", paths.EnvPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

func newBoardCommand(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board <id|slug>",
		Short: "Print one board partitioned into columns",
		Long: `Print one board the way the terminal board lays it out.

Cards whose status matches no live column are counted as hidden.

Examples:
  leadboard board leads
  leadboard board tasks --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")

			ss, err := s.open(cmd.Context(), "board", true)
			if err != nil {
				return err
			}
			defer ss.Close()
			if _, err := ss.svc.EnsureDefaultBoards(cmd.Context()); err != nil {
				return fmt.Errorf("ensure default boards: %w", err)
			}

			snap, err := common.NewAppServiceAdapter(ss.svc).BoardSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			return writeBoardText(cmd.OutOrStdout(), snap)
		},
	}
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

// writeBoardText renders a snapshot as an indented outline.
func writeBoardText(w io.Writer, snap common.BoardSnapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", snap.Board.Name, snap.Board.Slug)
	for _, lane := range snap.Lanes {
		fmt.Fprintf(&b, "\n%s [%d]\n", lane.Column.Title, len(lane.Cards))
		for _, card := range lane.Cards {
			if card.Subtitle == "" {
				fmt.Fprintf(&b, "  - %s\n", card.Title)
				continue
			}
			fmt.Fprintf(&b, "  - %s  %s\n", card.Title, card.Subtitle)
		}
	}
	if snap.Hidden > 0 {
		fmt.Fprintf(&b, "\n%d card(s) hidden: status matches no live column\n", snap.Hidden)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func newExportCommand(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of every board",
		Long: `Write boards, columns, leads and tasks as one versioned snapshot.

The format defaults to the --out extension, falling back to JSON.

Examples:
  leadboard export > backup.json
  leadboard export --format yaml --out backup.yaml
  leadboard export --archived=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outPath, _ := cmd.Flags().GetString("out")
			format, _ := cmd.Flags().GetString("format")
			includeArchived, _ := cmd.Flags().GetBool("archived")

			format, err := snapshotFormat(format, outPath)
			if err != nil {
				return err
			}
			ss, err := s.open(cmd.Context(), "export", true)
			if err != nil {
				return err
			}
			defer ss.Close()

			ss.logger.Info("command flow start", "command", "export", "format", format)
			snap, err := ss.svc.ExportSnapshot(cmd.Context(), includeArchived)
			if err != nil {
				return fmt.Errorf("export snapshot: %w", err)
			}
			encoded, err := encodeSnapshot(snap, format)
			if err != nil {
				return err
			}
			if outPath == "-" {
				if _, err := cmd.OutOrStdout().Write(encoded); err != nil {
					return fmt.Errorf("write snapshot to stdout: %w", err)
				}
			} else {
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return fmt.Errorf("create export output dir: %w", err)
				}
				if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
			}
			ss.logger.Info("command flow complete", "command", "export", "boards", len(snap.Boards), "leads", len(snap.Leads), "tasks", len(snap.Tasks))
			return nil
		},
	}
	cmd.Flags().String("out", "-", "output file path ('-' for stdout)")
	cmd.Flags().String("format", "", "json|yaml")
	cmd.Flags().Bool("archived", true, "include archived boards, columns and cards")
	return cmd
}

func newImportCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a snapshot written by export",
		Long: `Load a snapshot written by export. Records are upserted by id, so
importing the same file twice is harmless. Files ending in .yaml or .yml
are read as YAML, everything else as JSON.

Examples:
  leadboard import backup.json
  leadboard import backup.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			format, err := snapshotFormat("", args[0])
			if err != nil {
				return err
			}
			snap, err := decodeSnapshot(content, format)
			if err != nil {
				return err
			}

			ss, err := s.open(cmd.Context(), "import", true)
			if err != nil {
				return err
			}
			defer ss.Close()
			if err := ss.svc.ImportSnapshot(cmd.Context(), snap); err != nil {
				ss.logger.Error("command flow failed", "command", "import", "err", err)
				return fmt.Errorf("import snapshot: %w", err)
			}
			ss.logger.Info("command flow complete", "command", "import", "boards", len(snap.Boards), "leads", len(snap.Leads), "tasks", len(snap.Tasks))
			return nil
		},
	}
}

// snapshotFormat picks the explicit format, else the one implied by path.
func snapshotFormat(format, path string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	case "":
	default:
		return "", fmt.Errorf("unsupported format %q: want json or yaml", format)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return formatJSON, nil
	}
}

func encodeSnapshot(snap app.Snapshot, format string) ([]byte, error) {
	if format == formatYAML {
		encoded, err := yaml.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot yaml: %w", err)
		}
		return encoded, nil
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot json: %w", err)
	}
	return append(encoded, '\n'), nil
}

func decodeSnapshot(content []byte, format string) (app.Snapshot, error) {
	var snap app.Snapshot
	if format == formatYAML {
		if err := yaml.Unmarshal(content, &snap); err != nil {
			return app.Snapshot{}, fmt.Errorf("decode snapshot yaml: %w", err)
		}
		return snap, nil
	}
	if err := json.Unmarshal(content, &snap); err != nil {
		return app.Snapshot{}, fmt.Errorf("decode snapshot json: %w", err)
	}
	return snap, nil
}

func newMigrateCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply pending schema migrations. Postgres migrations run from the
embedded SQL files; the SQLite schema is brought up to date on open.

Examples:
  LEADBOARD_DATABASE_URL=postgres://... leadboard migrate
  leadboard migrate --db ./leadboard.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := s.loadConfig()
			if err != nil {
				return err
			}
			db := resolved.cfg.Database
			if db.Driver == config.DriverPostgres {
				schemaVersion, err := postgres.Migrate(db.URL)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "postgres schema at version %d\n", schemaVersion)
				return nil
			}

			ss, err := s.open(cmd.Context(), "migrate", true)
			if err != nil {
				return err
			}
			ss.Close()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sqlite schema ready: %s\n", db.Path)
			return nil
		},
	}
}

func newTokenCommand(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the API and MCP endpoint",
		Long: `Mint an HS256 bearer token signed with server.jwt_secret. The subject
is recorded as the actor on every change the token's holder makes.

Examples:
  leadboard token --subject rep-1
  leadboard token --subject zapier --ttl 720h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			resolved, err := s.loadConfig()
			if err != nil {
				return err
			}
			if ttl == 0 {
				if ttl, err = resolved.cfg.TokenTTL(); err != nil {
					return err
				}
			}
			token, err := server.MintToken(resolved.cfg.Server.JWTSecret, subject, ttl, time.Now())
			if errors.Is(err, server.ErrEmptySecret) {
				return fmt.Errorf("%w: set server.jwt_secret or %s", err, config.EnvJWTSecret)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("subject", "", "actor id recorded on changes made with this token")
	cmd.Flags().Duration("ttl", 0, "token lifetime (default server.token_ttl)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newConfigCommand(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration or write a starter file",
		Long: `Print the configuration after TOML, .env, environment and flag overrides
are applied. The JWT secret is redacted.

With --write, save the defaults to the config path instead. An existing
file is never overwritten.

Examples:
  leadboard config
  leadboard config --write`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			write, _ := cmd.Flags().GetBool("write")
			if write {
				paths, err := s.resolvePaths()
				if err != nil {
					return err
				}
				path := s.configFile(paths)
				if err := config.Write(path, config.Default(paths.DBPath)); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			}

			resolved, err := s.loadConfig()
			if err != nil {
				return err
			}
			cfg := resolved.cfg
			if cfg.Server.JWTSecret != "" {
				cfg.Server.JWTSecret = "<redacted>"
			}
			encoded, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", resolved.configPath)
			_, err = cmd.OutOrStdout().Write(encoded)
			return err
		},
	}
	cmd.Flags().Bool("write", false, "write the default configuration to the config path")
	return cmd
}
