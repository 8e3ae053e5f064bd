package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	cp "github.com/otiai10/copy"
	"github.com/vietdungdev/mapcrafter/internal/pattern"
	"github.com/vietdungdev/mapcrafter/internal/quality"
	"gopkg.in/yaml.v3"
)

var (
	cfgMux   sync.RWMutex
	Crafter  *CrafterCfg
	Profiles map[string]*CraftCfg
	Version  = "dev"

	// Dir is the configuration root, relative paths are resolved against the working directory.
	Dir = "config"
)

var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInvalidProfileName = errors.New("invalid profile name")
)

const (
	templateProfile = "template"
	crafterFile     = "crafter.yaml"
	profileFile     = "craft.yaml"
)

type CrafterCfg struct {
	Debug struct {
		Log bool `yaml:"log" env:"CRAFTER_DEBUG_LOG"`
	} `yaml:"debug"`
	LogSaveDirectory string `yaml:"logSaveDirectory" env:"CRAFTER_LOG_DIR"`
	Server           struct {
		Enabled bool `yaml:"enabled" env:"CRAFTER_SERVER_ENABLED"`
		Port    int  `yaml:"port" env:"CRAFTER_SERVER_PORT"`
	} `yaml:"server"`
	Discord struct {
		Enabled    bool     `yaml:"enabled"`
		BotAdmins  []string `yaml:"botAdmins"`
		ChannelID  string   `yaml:"channelId"`
		Token      string   `yaml:"token" env:"CRAFTER_DISCORD_TOKEN"`
		UseWebhook bool     `yaml:"useWebhook"`
		WebhookURL string   `yaml:"webhookUrl" env:"CRAFTER_DISCORD_WEBHOOK_URL"`
	} `yaml:"discord"`
	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		ChatID  int64  `yaml:"chatId" env:"CRAFTER_TELEGRAM_CHAT_ID"`
		Token   string `yaml:"token" env:"CRAFTER_TELEGRAM_TOKEN"`
	} `yaml:"telegram"`
	// Ngrok exposes the local server, it requires Server.Enabled.
	Ngrok struct {
		Enabled       bool   `yaml:"enabled"`
		SendURL       bool   `yaml:"sendUrl"`
		Authtoken     string `yaml:"authtoken" env:"NGROK_AUTHTOKEN"`
		Region        string `yaml:"region"`
		Domain        string `yaml:"domain"`
		BasicAuthUser string `yaml:"basicAuthUser"`
		BasicAuthPass string `yaml:"basicAuthPass" env:"CRAFTER_NGROK_BASIC_AUTH_PASS"`
	} `yaml:"ngrok"`
	Simulator SimulatorCfg `yaml:"simulator"`
}

// SimulatorCfg drives the in-process stash used for dry runs.
type SimulatorCfg struct {
	Seed             uint64         `yaml:"seed" env:"CRAFTER_SIMULATOR_SEED"`
	Maps             int            `yaml:"maps"`
	UnidentifiedMaps int            `yaml:"unidentifiedMaps"`
	CorruptedMaps    int            `yaml:"corruptedMaps"`
	MaxAttempts      int            `yaml:"maxAttempts"`    // currency uses per item before giving up
	ActionDelayMs    int            `yaml:"actionDelayMs"`  // pause between two currency clicks
	HoverTimeoutMs   int            `yaml:"hoverTimeoutMs"` // how long to wait for a hovered item
	Stock            map[string]int `yaml:"stock"`
}

// CraftCfg is the configuration of one craft profile, config/<profile>/craft.yaml.
type CraftCfg struct {
	Strategy       Strategy     `yaml:"strategy"`
	Mode           Mode         `yaml:"mode"`
	UseQualityTool bool         `yaml:"useQualityTool"`
	QualityTool    int          `yaml:"qualityTool"` // index in quality.Tools()
	MatchMode      pattern.Mode `yaml:"matchMode,omitempty"`
	Patterns       []string     `yaml:"patterns"`

	ProfileName string `yaml:"-"`
}

func GetProfile(name string) (*CraftCfg, bool) {
	cfgMux.RLock()
	defer cfgMux.RUnlock()
	cfg, exists := Profiles[name]
	return cfg, exists
}

func GetProfiles() map[string]*CraftCfg {
	cfgMux.RLock()
	defer cfgMux.RUnlock()
	copy := make(map[string]*CraftCfg, len(Profiles))
	for k, v := range Profiles {
		copy[k] = v
	}
	return copy
}

// ProfileNames returns the sorted profile names, the template excluded.
func ProfileNames() []string {
	cfgMux.RLock()
	defer cfgMux.RUnlock()
	names := make([]string, 0, len(Profiles))
	for name := range Profiles {
		if name != templateProfile {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func Load() error {
	cfgMux.Lock()
	defer cfgMux.Unlock()

	crafterPath := getAbsPath(crafterFile)
	r, err := os.Open(crafterPath)
	if err != nil {
		return fmt.Errorf("error loading %s: %w", crafterFile, err)
	}
	defer r.Close()

	cfg := &CrafterCfg{}
	if err = yaml.NewDecoder(r).Decode(cfg); err != nil {
		return fmt.Errorf("error reading config %s: %w", crafterPath, err)
	}
	if err = env.Parse(cfg); err != nil {
		return fmt.Errorf("error reading environment overrides: %w", err)
	}
	cfg.applyDefaults()
	Crafter = cfg

	configDir := getAbsPath("")
	entries, err := os.ReadDir(configDir)
	if err != nil {
		return fmt.Errorf("error reading config directory %s: %w", configDir, err)
	}

	profiles := make(map[string]*CraftCfg)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		profilePath := getAbsPath(filepath.Join(entry.Name(), profileFile))
		craftCfg, err := readProfile(profilePath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		craftCfg.ProfileName = entry.Name()
		craftCfg.Normalize()
		profiles[entry.Name()] = craftCfg
	}
	Profiles = profiles

	return nil
}

func readProfile(path string) (*CraftCfg, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// An empty file is a profile with every default.
	cfg := &CraftCfg{}
	if err = yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error reading %s profile config: %w", path, err)
	}
	return cfg, nil
}

func (c *CrafterCfg) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8087
	}
	if c.LogSaveDirectory == "" {
		c.LogSaveDirectory = "logs"
	}
	if c.Simulator.Maps == 0 {
		c.Simulator.Maps = 10
	}
	if c.Simulator.MaxAttempts == 0 {
		c.Simulator.MaxAttempts = 500
	}
	if c.Simulator.HoverTimeoutMs == 0 {
		c.Simulator.HoverTimeoutMs = 5000
	}
}

// Normalize maps legacy spellings to their canonical value and fills defaults.
// Unknown values are left untouched so Validate can report them.
func (c *CraftCfg) Normalize() {
	if c.Strategy == "" {
		c.Strategy = StrategyChaosSpam
	} else if s, err := ParseStrategy(string(c.Strategy)); err == nil {
		c.Strategy = s
	}

	if c.Mode == "" {
		c.Mode = ModeHovered
	} else if m, err := ParseMode(string(c.Mode)); err == nil {
		c.Mode = m
	}

	if mm, err := pattern.ParseMode(string(c.MatchMode)); err == nil {
		c.MatchMode = mm
	}
}

// Validate reports every configuration error of the profile at once.
func (c *CraftCfg) Validate() error {
	var errs []error

	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		errs = append(errs, err)
	}
	if _, err := pattern.ParseMode(string(c.MatchMode)); err != nil {
		errs = append(errs, err)
	}
	if !quality.Tool(c.QualityTool).Valid() {
		errs = append(errs, fmt.Errorf("quality tool index %d out of range [0,%d)", c.QualityTool, len(quality.Tools())))
	}
	if err := pattern.Validate(c.Patterns); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: profile %q: %w", ErrInvalidConfig, c.ProfileName, errors.Join(errs...))
	}
	return nil
}

// Clone returns a deep copy, sessions work on a snapshot so edits made while
// they run never reach the loop.
func (c CraftCfg) Clone() CraftCfg {
	c.Patterns = slices.Clone(c.Patterns)
	return c
}

// validName rejects names that are not a single directory below Dir.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}
	return nil
}

func CreateFromTemplate(name string) error {
	if err := validName(name); err != nil {
		return err
	}

	dst := getAbsPath(name)
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		return errors.New("configuration with that name already exists")
	}

	if err := cp.Copy(getAbsPath(templateProfile), dst); err != nil {
		return fmt.Errorf("error copying template: %w", err)
	}

	return Load()
}

func SaveProfile(name string, cfg *CraftCfg) error {
	if err := validName(name); err != nil {
		return err
	}
	if cfg == nil {
		return errors.New("profile config is nil")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	d, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error parsing profile config: %w", err)
	}

	if err = os.WriteFile(getAbsPath(filepath.Join(name, profileFile)), d, 0644); err != nil {
		return fmt.Errorf("error writing profile config: %w", err)
	}

	return Load()
}

func getAbsPath(relPath string) string {
	base := Dir
	if !filepath.IsAbs(base) {
		cwd, err := os.Getwd()
		if err == nil {
			base = filepath.Join(cwd, base)
		}
	}
	return filepath.Join(base, relPath)
}
