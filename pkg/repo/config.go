package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/odvcencio/grit/pkg/object"
)

// Config stores repository-local settings. It lives at .grit/config.toml.
type Config struct {
	User UserConfig `toml:"user"`
}

// UserConfig is the [user] section: the identity stamped into commits.
type UserConfig struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

func (r *Repo) configPath() string {
	return filepath.Join(r.GritDir, "config.toml")
}

// ReadConfig reads .grit/config.toml. A missing config reads as empty.
func (r *Repo) ReadConfig() (*Config, error) {
	data, err := os.ReadFile(r.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("read config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// WriteConfig atomically writes .grit/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(r.GritDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// ConfigGet returns the value for a dotted config key such as "user.name".
func (r *Repo) ConfigGet(key string) (string, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return "", err
	}
	switch key {
	case "user.name":
		return cfg.User.Name, nil
	case "user.email":
		return cfg.User.Email, nil
	default:
		return "", fmt.Errorf("config: unknown key %q", key)
	}
}

// ConfigSet updates the value for a dotted config key such as "user.name".
func (r *Repo) ConfigSet(key, value string) error {
	value = strings.TrimSpace(value)
	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	switch key {
	case "user.name":
		cfg.User.Name = value
	case "user.email":
		cfg.User.Email = value
	default:
		return fmt.Errorf("config: unknown key %q", key)
	}
	return r.WriteConfig(cfg)
}

// SetUser writes both identity fields in one update.
func (r *Repo) SetUser(name, email string) error {
	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	cfg.User.Name = strings.TrimSpace(name)
	cfg.User.Email = strings.TrimSpace(email)
	return r.WriteConfig(cfg)
}

// UserSignature builds the commit identity from config, falling back to the
// process owner when either field is unset.
func (r *Repo) UserSignature() (object.Signature, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return object.Signature{}, err
	}

	user := os.Getenv("USER")
	if user == "" {
		user = "unknown"
	}
	name := cfg.User.Name
	if name == "" {
		name = user
	}
	email := cfg.User.Email
	if email == "" {
		email = user + "@localhost"
	}
	return object.NewSignature(name, email), nil
}
