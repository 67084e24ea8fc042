// ABOUTME: Setup subcommands: interactive config creation, user registration and token issue
// ABOUTME: Registration stands in for the identity provider that normally creates users

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aidarkhanov/nanoid/v2"
	"github.com/fatih/color"

	"github.com/lemcom/lemcom-directory/internal/auth"
	"github.com/lemcom/lemcom-directory/internal/config"
	"github.com/lemcom/lemcom-directory/internal/directory"
	"github.com/lemcom/lemcom-directory/internal/sanitize"
	"github.com/lemcom/lemcom-directory/internal/store"
)

const (
	keyAlphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	keyLength     = 32
	maxNameLength = 32
)

// parseFlags reads "--flag value" and "--flag=value" pairs. Only names in
// allowed are accepted.
func parseFlags(args []string, allowed ...string) (map[string]string, error) {
	values := make(map[string]string)
	isAllowed := func(name string) bool {
		for _, a := range allowed {
			if a == name {
				return true
			}
		}
		return false
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("unexpected argument: %s", arg)
		}
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if !isAllowed(name) {
			return nil, fmt.Errorf("unknown flag: %s", arg)
		}
		if !hasValue {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--%s requires a value", name)
			}
			value = args[i+1]
			i++
		}
		values[name] = value
	}
	return values, nil
}

// newUserKey generates a random API key.
func newUserKey() (string, error) {
	return nanoid.GenerateString(keyAlphabet, keyLength)
}

// registerUser validates the flags and stores a new user.
func registerUser(ctx context.Context, users store.UserStore, flags map[string]string, now time.Time) (*directory.User, error) {
	name := sanitize.Name(flags["name"])
	if name == "" {
		return nil, errors.New("--name is required and must contain letters or digits")
	}
	if len([]rune(name)) > maxNameLength {
		return nil, fmt.Errorf("name exceeds maximum length of %d characters", maxNameLength)
	}

	displayName := strings.TrimSpace(flags["display-name"])
	if displayName == "" {
		displayName = flags["name"]
	}

	level := directory.PermissionUser
	if raw, ok := flags["permission"]; ok {
		level = directory.PermissionLevel(raw)
		switch level {
		case directory.PermissionUser, directory.PermissionModerator,
			directory.PermissionAdministrator, directory.PermissionOwner:
		default:
			return nil, fmt.Errorf("unknown permission level %q", raw)
		}
	}

	key, err := newUserKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	user := directory.NewUser(key, name, displayName, now)
	user.PermissionLevel = level
	if err := users.SaveUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			return nil, fmt.Errorf("name %q is already taken", name)
		}
		return nil, fmt.Errorf("saving user: %w", err)
	}
	return user, nil
}

func runRegister(ctx context.Context, args []string) error {
	flags, err := parseFlags(args, "name", "display-name", "permission")
	if err != nil {
		return err
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	user, err := registerUser(ctx, s, flags, time.Now())
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	green.Printf("  ✓ Registered %s\n", user.Name)
	fmt.Println()
	cyan.Println("  User")
	cyan.Println("  ----")
	fmt.Printf("  Name:         %s\n", user.Name)
	fmt.Printf("  Display Name: %s\n", user.DisplayName)
	fmt.Printf("  Permission:   %s\n", user.PermissionLevel)
	fmt.Printf("  API Key:      %s\n", user.Key)
	fmt.Println()
	fmt.Printf("  Send it as the %s header.\n", auth.APIKeyHeader)
	return nil
}

func runToken(ctx context.Context, args []string) error {
	flags, err := parseFlags(args, "name", "ttl")
	if err != nil {
		return err
	}
	if flags["name"] == "" {
		return errors.New("--name is required")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not configured")
	}

	ttl := cfg.Auth.TokenTTL
	if raw, ok := flags["ttl"]; ok {
		ttl, err = time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("invalid --ttl %q", raw)
		}
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	user, err := s.GetUserByName(ctx, sanitize.Name(flags["name"]))
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("user %q not found", flags["name"])
	}
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}

	token, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)).Generate(user.Key, ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println(token)
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("lemcom-directory configuration setup")
	fmt.Println("====================================")
	fmt.Println()

	defaultDBPath := filepath.Join(getDataPath(), "directory.db")

	outputFile := prompt(reader, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		if !yes(prompt(reader, "File exists. Overwrite?", "no")) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")

	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDBPath)

	fmt.Println("\n--- Authentication ---")
	var jwtSecret string
	if yes(prompt(reader, "Enable bearer tokens?", "yes")) {
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		jwtSecret = base64.StdEncoding.EncodeToString(secretBytes)
	}

	fmt.Println("\n--- Tailscale Configuration ---")
	tailscaleEnabled := yes(prompt(reader, "Enable Tailscale?", "no"))

	var tsHostname, tsAuthKey string
	var tsEphemeral, tsFunnel bool
	if tailscaleEnabled {
		tsHostname = prompt(reader, "Tailscale hostname", "lemcom-directory")
		tsAuthKey = prompt(reader, "Tailscale auth key (leave empty to use TS_AUTHKEY)", "")
		tsEphemeral = yes(prompt(reader, "Ephemeral node?", "no"))
		tsFunnel = yes(prompt(reader, "Enable Funnel (public HTTPS)?", "no"))
	}

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# lemcom-directory configuration\n")
	cfg.WriteString("# Generated by lemcom-directory init\n\n")

	fmt.Fprintf(&cfg, "server:\n  http_addr: %q\n\n", httpAddr)
	fmt.Fprintf(&cfg, "database:\n  path: %q\n\n", dbPath)
	if jwtSecret != "" {
		fmt.Fprintf(&cfg, "auth:\n  jwt_secret: %q\n  token_ttl: %q\n\n", jwtSecret, config.DefaultTokenTTL.String())
	}

	fmt.Fprintf(&cfg, "tailscale:\n  enabled: %t\n", tailscaleEnabled)
	if tailscaleEnabled {
		fmt.Fprintf(&cfg, "  hostname: %q\n", tsHostname)
		if tsAuthKey != "" {
			fmt.Fprintf(&cfg, "  auth_key: %q\n", tsAuthKey)
		}
		fmt.Fprintf(&cfg, "  ephemeral: %t\n  funnel: %t\n", tsEphemeral, tsFunnel)
	}
	cfg.WriteString("\n")

	fmt.Fprintf(&cfg, "logging:\n  level: %q\n  format: %q\n", logLevel, logFormat)

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nNext steps:")
	fmt.Println("  lemcom-directory register --name you")
	fmt.Println("  lemcom-directory serve")

	return nil
}

func yes(answer string) bool {
	a := strings.ToLower(answer)
	return a == "yes" || a == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
