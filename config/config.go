// Package config loads layered service configuration.
//
// Every value is resolved per key with the precedence
//
//	file <folder>/<KEY>  >  environment variable <KEY>  >  built-in default
//
// The per-key files follow the docker secrets convention: a file named after
// the key whose content is the value. The source of each resolved value is
// recorded in Items so the running configuration can be inspected over HTTP
// without exposing secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const secretMask = "secret"

// Item records where a configuration value came from. Secret values are
// masked before they reach the ledger.
type Item struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	From  string `json:"from"`
}

// Config is the resolved service configuration.
type Config struct {
	AppName     string
	Port        int
	BuiltAt     string
	EnableLogin bool

	Logger *Logger
	Auth   *Auth
	Data   *Data

	// Items is the per-key source ledger, in resolution order.
	Items []Item

	folder string

	mu          sync.RWMutex
	versions    []map[string]any
	enumerators []map[string]any
}

// loader resolves individual keys and keeps the ledger.
type loader struct {
	v      *viper.Viper
	folder string
	items  []Item
}

func newLoader(folder string) *loader {
	v := viper.New()
	v.AutomaticEnv()
	return &loader{v: v, folder: folder}
}

// resolve returns the value for name. viper owns the environment and default
// layers; a per-key file, when present, overrides both.
func (l *loader) resolve(name, defaultValue string, secret bool) string {
	l.v.SetDefault(name, defaultValue)

	value := l.v.GetString(name)
	from := "default"
	// viper treats an empty environment value as unset, so the ledger does too.
	if os.Getenv(name) != "" {
		from = "environment"
	}

	if l.folder != "" {
		if raw, err := os.ReadFile(filepath.Join(l.folder, name)); err == nil {
			value = strings.TrimSpace(string(raw))
			from = "file"
		}
	}

	recorded := value
	if secret {
		recorded = secretMask
	}
	l.items = append(l.items, Item{Name: name, Value: recorded, From: from})
	return value
}

func (l *loader) getString(name, defaultValue string) string {
	return l.resolve(name, defaultValue, false)
}

func (l *loader) getSecret(name, defaultValue string) string {
	return l.resolve(name, defaultValue, true)
}

func (l *loader) getInt(name string, defaultValue int) int {
	raw := l.resolve(name, strconv.Itoa(defaultValue), false)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultValue
	}
	return n
}

func (l *loader) getBool(name string, defaultValue bool) bool {
	raw := l.resolve(name, strconv.FormatBool(defaultValue), false)
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// Load resolves the full configuration. folder may be empty, in which case
// only environment variables and defaults apply.
//
// Load fails when JWT_SECRET is left at its development default: services
// must be started with an explicit secret.
func Load(folder string) (*Config, error) {
	l := newLoader(folder)

	cfg := &Config{
		AppName:     l.getString("APP_NAME", "apikit"),
		Port:        l.getInt("API_PORT", 8580),
		BuiltAt:     l.getString("BUILT_AT", "LOCAL"),
		EnableLogin: l.getBool("ENABLE_LOGIN", false),
		Logger:      getLogger(l),
		Auth:        getAuth(l),
		Data:        getData(l),
		folder:      folder,
	}
	cfg.Items = l.items

	if cfg.Auth.JWT.Secret == defaultJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be explicitly set; the default value is not allowed")
	}

	return cfg, nil
}

// Reload re-resolves the configuration from the same folder.
func (c *Config) Reload() (*Config, error) {
	return Load(c.folder)
}

// Watch watches the config folder and invokes callback with a freshly loaded
// configuration whenever a per-key file changes. It returns a stop function.
// Watch is a no-op when the configuration was loaded without a folder.
func (c *Config) Watch(callback func(*Config)) (func(), error) {
	if c.folder == "" {
		return func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Add(c.folder); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config folder: %w", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
					continue
				}
				if next, err := c.Reload(); err == nil {
					callback(next)
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}

// SetVersions stores the collection version documents loaded at boot.
func (c *Config) SetVersions(versions []map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions = versions
}

// SetEnumerators stores the enumerator documents loaded at boot.
func (c *Config) SetEnumerators(enumerators []map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enumerators = enumerators
}

// ToMap renders the configuration for the config endpoint. Secrets are
// already masked in the ledger; token is echoed so callers can see the
// identity the request was evaluated under.
func (c *Config) ToMap(token any) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	versions := c.versions
	if versions == nil {
		versions = []map[string]any{}
	}
	enumerators := c.enumerators
	if enumerators == nil {
		enumerators = []map[string]any{}
	}

	return map[string]any{
		"config_items": c.Items,
		"versions":     versions,
		"enumerators":  enumerators,
		"token":        token,
	}
}
