// Package cli is the manganime client. It owns the device-local cache and
// runs the library merger against the server; reads and writes work offline
// and sync when the server is reachable.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"manganime/internal/library"
	"manganime/internal/localstore"
)

// ClientConfig is the CLI's saved session, stored as YAML under the config
// directory next to the device cache.
type ClientConfig struct {
	ServerURL string `yaml:"server_url"`
	Username  string `yaml:"username"`
	UserID    string `yaml:"user_id"`
	Token     string `yaml:"token"`
}

var rootCmd = &cobra.Command{
	Use:   "manganime",
	Short: "Manganime client",
	Long:  "Track anime, manga and comics: comments, likes, and a reading library that works offline and syncs when it can.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "Server base URL")
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(libraryCmd)
	rootCmd.AddCommand(contentCmd)
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".manganime")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func loadConfig() (*ClientConfig, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	cfg := &ClientConfig{ServerURL: "http://localhost:8080"}
	raw, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("corrupt config file: %w", err)
	}
	return cfg, nil
}

func saveConfig(cfg *ClientConfig) error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), raw, 0o600)
}

// serverURL resolves the effective server base URL: flag beats saved config.
func serverURL(cmd *cobra.Command, cfg *ClientConfig) string {
	if cmd.Flags().Changed("server") {
		url, _ := cmd.Flags().GetString("server")
		return url
	}
	if cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	url, _ := cmd.Flags().GetString("server")
	return url
}

// openLibrary wires the device cache to the (possibly absent) remote store.
// Without a saved token the library runs local-only.
func openLibrary(cmd *cobra.Command) (*library.Service, *localstore.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	dir, err := configDir()
	if err != nil {
		return nil, nil, err
	}
	store, err := localstore.Open(filepath.Join(dir, "device.db"))
	if err != nil {
		return nil, nil, err
	}

	var remote library.RemoteStore
	if cfg.Token != "" {
		remote = library.NewClient(serverURL(cmd, cfg), cfg.Token)
	}
	return library.NewService(store, remote), store, nil
}
