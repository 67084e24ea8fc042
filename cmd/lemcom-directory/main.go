// ABOUTME: Entry point for lemcom-directory, the social directory server
// ABOUTME: Dispatches serve, init, register, token and health subcommands

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/lemcom/lemcom-directory/internal/config"
	"github.com/lemcom/lemcom-directory/internal/server"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  _                                        _ _               _
 | | ___ _ __ ___   ___ ___  _ __ ___    __| (_)_ __ ___  ___| |_ ___  _ __ _   _
 | |/ _ \ '_ ' _ \ / __/ _ \| '_ ' _ \  / _' | | '__/ _ \/ __| __/ _ \| '__| | | |
 | |  __/ | | | | | (_| (_) | | | | | || (_| | | | |  __/ (__| || (_) | |  | |_| |
 |_|\___|_| |_| |_|\___\___/|_| |_| |_| \__,_|_|_|  \___|\___|\__\___/|_|   \__, |
                                                                           |___/
`

// getConfigPath returns the path to the directory config file.
// Priority: LEMCOM_CONFIG env var > XDG_CONFIG_HOME/lemcom/directory.yaml > ~/.config/lemcom/directory.yaml
func getConfigPath() string {
	if envPath := os.Getenv("LEMCOM_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "directory.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "lemcom", "directory.yaml")
}

// getDataPath returns the path to the lemcom data directory.
// Priority: XDG_DATA_HOME/lemcom > ~/.local/share/lemcom
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "lemcom")
}

func usage() {
	fmt.Println("Usage: lemcom-directory <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                         Start the directory server")
	fmt.Println("  init                          Create a new config file interactively")
	fmt.Println("  register --name NAME          Create a user and print its API key")
	fmt.Println("           [--display-name D] [--permission LEVEL]")
	fmt.Println("  token --name NAME [--ttl D]   Issue a bearer token for a user")
	fmt.Println("  health                        Check server health")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "register":
		err = runRegister(ctx, os.Args[2:])
	case "token":
		err = runToken(ctx, os.Args[2:])
	case "health":
		err = runHealth(ctx)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	} else {
		green.Print("    ▶ ")
		fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	}
	if cfg.Auth.JWTSecret == "" {
		yellow.Println("    ! bearer tokens disabled (no auth.jwt_secret)")
	}
	fmt.Println()

	logger.Info("starting lemcom-directory",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
