package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/seedsweep/seedsweep/internal/client"
	"github.com/seedsweep/seedsweep/internal/config"
	"github.com/seedsweep/seedsweep/internal/history"
	"github.com/seedsweep/seedsweep/internal/mediafile"
	"github.com/seedsweep/seedsweep/internal/provider"
	"github.com/seedsweep/seedsweep/internal/sweep"
	"github.com/seedsweep/seedsweep/pkg/version"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	cfgFile string
	debug   bool
	anime   bool

	rootCmd = &cobra.Command{
		Use:   "seedsweep",
		Short: "seedsweep submits downloads to torrent clients and removes them once seeded",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize a new config file",
		RunE:  runInit,
	}

	clientsCmd = &cobra.Command{
		Use:   "clients",
		Short: "List the supported torrent clients",
		RunE:  runClients,
	}

	testCmd = &cobra.Command{
		Use:   "test",
		Short: "Test the connection to the configured torrent client",
		RunE:  runTest,
	}

	addCmd = &cobra.Command{
		Use:   "add <magnet-uri|torrent-file>",
		Short: "Submit a magnet link or torrent file to the configured client",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdd,
		Example: `  # Submit a magnet link
  seedsweep add "magnet:?xt=urn:btih:..."

  # Submit a torrent file under the anime label
  seedsweep add --anime show.torrent`,
	}

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Run one ratio cleanup sweep",
		RunE:  runSweep,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run ratio cleanup sweeps continuously",
		RunE:  runService,
		Example: `  # Sweep at the configured interval
  seedsweep run

  # Sweep every 30 minutes
  seedsweep run --interval 30`,
	}

	interval int

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show version information and check for updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return version.CheckForUpdates("seedsweep", "seedsweep")
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	setupGroup := &cobra.Group{
		ID:    "setup",
		Title: "Configuration Commands:",
	}

	operationGroup := &cobra.Group{
		ID:    "operation",
		Title: "Client Commands:",
	}

	rootCmd.AddGroup(setupGroup, operationGroup)

	initCmd.GroupID = "setup"
	clientsCmd.GroupID = "setup"
	testCmd.GroupID = "operation"
	addCmd.GroupID = "operation"
	sweepCmd.GroupID = "operation"
	runCmd.GroupID = "operation"

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)

	addCmd.Flags().BoolVar(&anime, "anime", false, "submit under the anime label")
	runCmd.Flags().IntVar(&interval, "interval", 60, "sweep interval in minutes")
}

func findConfig() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml", nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Error().Err(err).Msg("could not determine home directory")
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}

	configDir := filepath.Join(home, ".config", "seedsweep")
	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	log.Error().Str("config_dir", configDir).Msg("no config file found")
	return "", fmt.Errorf("no config file found in current directory or %s", configDir)
}

func loadConfig() (*config.Config, error) {
	path, err := findConfig()
	if err != nil {
		return nil, err
	}

	log.Debug().Str("path", path).Msg("loading config file")
	return config.Load(path)
}

func resolveAdapter(cfg *config.Config) (client.Adapter, error) {
	factory, err := client.Resolve(cfg.Client)
	if err != nil {
		return nil, err
	}
	return factory(cfg), nil
}

func runClients(cmd *cobra.Command, args []string) error {
	for _, desc := range client.Descriptors() {
		log.Info().
			Str("key", desc.Key).
			Str("name", desc.Name).
			Bool("supportsRemove", desc.SupportsRemove).
			Msg("supported client")
	}
	return nil
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	adapter, err := resolveAdapter(cfg)
	if err != nil {
		return err
	}

	ok, msg := adapter.Test(cmd.Context())
	if !ok {
		log.Error().Str("client", cfg.Client).Msg(msg)
		return fmt.Errorf("connection test failed: %s", msg)
	}

	log.Info().Str("client", cfg.Client).Msg(msg)
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	adapter, err := resolveAdapter(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := adapter.Authenticate(ctx); err != nil {
		log.Error().Err(err).Str("client", cfg.Client).Msg("failed to authenticate")
		return fmt.Errorf("failed to authenticate with %s: %w", cfg.Client, err)
	}

	var (
		job      *client.Job
		accepted bool
	)

	if strings.HasPrefix(args[0], "magnet:") {
		job, err = client.JobFromMagnet(args[0])
		if err != nil {
			return err
		}
		job.Anime = anime
		accepted = adapter.AddMagnet(ctx, job)
	} else {
		payload, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read torrent file: %w", err)
		}
		job, err = client.JobFromFile(payload)
		if err != nil {
			return err
		}
		job.Anime = anime
		accepted = adapter.AddFile(ctx, job)
	}

	if !accepted {
		log.Error().
			Str("client", cfg.Client).
			Str("hash", job.InfoHash).
			Msg("torrent was not accepted")
		return fmt.Errorf("torrent was not accepted by %s", cfg.Client)
	}

	log.Info().
		Str("client", cfg.Client).
		Str("hash", job.InfoHash).
		Str("torrent", job.Name).
		Str("size", units.HumanSize(float64(job.Size))).
		Msg("successfully submitted torrent")
	return nil
}

func buildEngine(cfg *config.Config) (*sweep.Engine, *history.Store, error) {
	if !client.SupportsRemove(cfg.Client) {
		return nil, nil, fmt.Errorf("client %s does not support removing torrents", cfg.Client)
	}

	adapter, err := resolveAdapter(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return nil, nil, err
	}

	engine := sweep.NewEngine(
		adapter,
		store,
		mediafile.Classifier{},
		provider.NewRegistry(cfg),
		cfg.Label,
		cfg.AnimeLabel,
		log.With().Str("client", cfg.Client).Logger(),
	)
	return engine, store, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, store, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if !engine.Run(cmd.Context()) {
		return fmt.Errorf("sweep could not establish a session with %s", cfg.Client)
	}
	return nil
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !cmd.Flags().Changed("interval") && cfg.Interval > 0 {
		interval = cfg.Interval
	}

	engine, store, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	log.Info().
		Int("interval", interval).
		Str("schedule", fmt.Sprintf("every %d minutes", interval)).
		Msg("starting sweep service")

	ticker := time.NewTicker(time.Duration(interval) * time.Minute)
	defer ticker.Stop()

	ctx := cmd.Context()

	// initial sweep; the ticker serializes the rest, one sweep at a time
	if !engine.Run(ctx) {
		log.Error().Msg("sweep could not establish a session")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			log.Info().Msg("performing scheduled sweep")
			if !engine.Run(ctx) {
				log.Error().Msg("sweep could not establish a session")
			}
		}
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := cfgFile
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Error().Err(err).Msg("could not determine home directory")
			return fmt.Errorf("could not determine home directory: %w", err)
		}
		configDir := filepath.Join(home, ".config", "seedsweep")
		if err := os.MkdirAll(configDir, 0755); err != nil {
			log.Error().Err(err).Str("dir", configDir).Msg("could not create config directory")
			return fmt.Errorf("could not create config directory: %w", err)
		}
		configPath = filepath.Join(configDir, "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		log.Error().Str("path", configPath).Msg("config file already exists")
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	ratio := func(v float64) *float64 { return &v }

	defaultConfig := config.Config{
		Client: "qbittorrent",
		Clients: map[string]config.ClientConfig{
			"qbittorrent": {
				URL:        "http://localhost:8080",
				Username:   "admin",
				Password:   "adminadmin",
				VerifyCert: true,
			},
			"rtorrent": {
				URL:        "http://localhost/rutorrent/plugins/httprpc/action.php",
				VerifyCert: true,
			},
			"deluge": {
				Host:     "localhost",
				Port:     58846,
				Username: "admin",
				Password: "adminadmin",
			},
			"transmission": {
				URL:        "http://localhost:9091/transmission/rpc",
				Username:   "admin",
				Password:   "adminadmin",
				VerifyCert: true,
			},
			"watchfolder": {
				WatchDir: "/path/to/watch/directory",
			},
		},
		Label:      "tv",
		AnimeLabel: "anime",
		SavePath:   "",
		HistoryDB:  "seedsweep.db",
		Providers: []config.Provider{
			{Name: "example-tracker", Type: "torrent", Enabled: true, Priority: 10, Ratio: ratio(2.0)},
			{Name: "private-tracker", Type: "torrent", Enabled: true, Priority: 5, Ratio: ratio(-1)},
		},
		Interval: 60,
	}

	data, err := yaml.Marshal(defaultConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configContent := `# seedsweep configuration
#
# Pick the active client with "client" and fill in its connection block.
#
# For qBittorrent and Transmission:
# - url format: http(s)://hostname:port
#
# For rTorrent/ruTorrent:
# - url format: http(s)://hostname/rutorrent/plugins/httprpc/action.php
#
# For Deluge:
# - host and port of the daemon, plus daemon username and password
#
# For watch folders:
# - just the path where .torrent files should be saved
#
# Providers: a ratio of -1 (or no ratio at all) means torrents from that
# provider are never removed based on seed ratio.

`
	configContent += string(data)

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info().Str("path", configPath).Msg("created new config file")
	log.Info().Msg("remember to edit the config file and fill in your client credentials")
	return nil
}
