package signal

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"marginscope/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ErrUnknownProfile is returned when a profile name is not registered.
var ErrUnknownProfile = errors.New("unknown strategy profile")

// FileConfig maps the custom profile YAML file.
type FileConfig struct {
	Profiles map[string]Definition `mapstructure:"profiles" yaml:"profiles"`
}

// Registry holds the built-in profiles plus any custom profiles loaded
// from a watched YAML file. Custom profiles shadow built-ins by name.
type Registry struct {
	mu       sync.RWMutex
	builtin  map[string]Profile
	custom   map[string]Profile
	version  int64
	loadedAt time.Time
	v        *viper.Viper
}

// NewRegistry builds a registry containing only the built-in profiles.
func NewRegistry() (*Registry, error) {
	builtin := make(map[string]Profile)
	for _, def := range builtinDefinitions() {
		p, err := Build(def)
		if err != nil {
			return nil, fmt.Errorf("builtin profile %s: %w", def.Name, err)
		}
		builtin[p.Name()] = p
	}
	return &Registry{builtin: builtin, custom: map[string]Profile{}}, nil
}

// WatchFile loads custom profile definitions from path and reloads them
// whenever the file changes.
func (r *Registry) WatchFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("profile watch requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read profile config failed: %w", err)
	}
	r.v = v
	if err := r.reload(); err != nil {
		return err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("profile reload failed: %v", err)
		}
	})
	v.WatchConfig()
	return nil
}

func (r *Registry) reload() error {
	var fc FileConfig
	if err := r.v.Unmarshal(&fc); err != nil {
		return fmt.Errorf("parse profile config failed: %w", err)
	}
	custom := make(map[string]Profile, len(fc.Profiles))
	for key, def := range fc.Profiles {
		if strings.TrimSpace(def.Name) == "" {
			def.Name = key
		}
		p, err := Build(def)
		if err != nil {
			return err
		}
		custom[p.Name()] = p
	}
	r.mu.Lock()
	r.custom = custom
	r.version++
	r.loadedAt = time.Now()
	r.mu.Unlock()
	logger.Infof("loaded %d custom strategy profile(s)", len(custom))
	return nil
}

// Lookup resolves a profile by name, custom profiles first.
func (r *Registry) Lookup(name string) (Profile, error) {
	key := strings.TrimSpace(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.custom[key]; ok {
		return p, nil
	}
	if p, ok := r.builtin[key]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
}

// Names lists every registered profile name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool, len(r.builtin)+len(r.custom))
	out := make([]string, 0, len(r.builtin)+len(r.custom))
	for name := range r.builtin {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for name := range r.custom {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
