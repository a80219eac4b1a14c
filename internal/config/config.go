package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable trackhook settings.
type Config struct {
	StateDir            string   `yaml:"state_dir"`      // relative to the working directory, or absolute
	ChecklistFile       string   `yaml:"checklist_file"` // relative to the working directory
	ProgressFile        string   `yaml:"progress_file"`  // relative to the state directory
	UpdateInterval      int      `yaml:"update_interval"`
	CommandMaxLen       int      `yaml:"command_max_len"`
	ChecklistMinWordLen int      `yaml:"checklist_min_word_len"`
	MaxRecentTasks      int      `yaml:"max_recent_tasks"`
	MaxMilestones       int      `yaml:"max_milestones"`
	MaxFiles            int      `yaml:"max_files"`
	IgnorePatterns      []string `yaml:"ignore_patterns"`
	Debug               bool     `yaml:"debug"`
}

// ProjectFileName is the project config's name inside the state directory.
const ProjectFileName = "trackhook.yaml"

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		StateDir:            ".claude",
		ChecklistFile:       "CLAUDE.md",
		ProgressFile:        "LIVE-PROGRESS.md",
		UpdateInterval:      5,
		CommandMaxLen:       100,
		ChecklistMinWordLen: 4,
		MaxRecentTasks:      10,
		MaxMilestones:       5,
		MaxFiles:            15,
		IgnorePatterns:      []string{},
	}
}

// GlobalPath returns $XDG_CONFIG_HOME/trackhook/config.yaml, falling back to
// ~/.config/trackhook/config.yaml.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "trackhook", "config.yaml"), nil
}

// LoadGlobal reads the user-level config.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads <workDir>/<stateDir>/trackhook.yaml.
// Returns nil (no error) if the file is absent.
func LoadProject(workDir, stateDir string) (*Config, error) {
	if stateDir == "" {
		stateDir = Defaults().StateDir
	}
	return loadFile(filepath.Join(resolve(workDir, stateDir), ProjectFileName), false)
}

// Load resolves the effective configuration for workDir. The project file is
// looked up under the state directory the global layer selects.
func Load(workDir string) (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Defaults(), err
	}
	stateDir := Defaults().StateDir
	if global != nil && global.StateDir != "" {
		stateDir = global.StateDir
	}
	project, err := LoadProject(workDir, stateDir)
	if err != nil {
		return Merge(global, nil), err
	}
	cfg := Merge(global, project)
	if err := cfg.Validate(); err != nil {
		return Defaults(), err
	}
	return cfg, nil
}

// Validate rejects settings the tracker cannot run with. A state directory
// that resolves to the project itself or its parent would swallow every
// project file as tracker state.
func (c Config) Validate() error {
	if filepath.IsAbs(c.StateDir) {
		return nil
	}
	clean := filepath.Clean(c.StateDir)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return &ValidationError{Key: "state_dir", Value: c.StateDir, Reason: "must be a directory inside the project or an absolute path"}
	}
	return nil
}

// loadFile reads and parses a YAML config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	apply(&result, global)
	apply(&result, project)
	return result
}

// apply copies every key set in src over dst. Zero values count as unset;
// Debug can only be switched on.
func apply(dst, src *Config) {
	if src == nil {
		return
	}
	if src.StateDir != "" {
		dst.StateDir = src.StateDir
	}
	if src.ChecklistFile != "" {
		dst.ChecklistFile = src.ChecklistFile
	}
	if src.ProgressFile != "" {
		dst.ProgressFile = src.ProgressFile
	}
	if src.UpdateInterval > 0 {
		dst.UpdateInterval = src.UpdateInterval
	}
	if src.CommandMaxLen > 0 {
		dst.CommandMaxLen = src.CommandMaxLen
	}
	if src.ChecklistMinWordLen > 0 {
		dst.ChecklistMinWordLen = src.ChecklistMinWordLen
	}
	if src.MaxRecentTasks > 0 {
		dst.MaxRecentTasks = src.MaxRecentTasks
	}
	if src.MaxMilestones > 0 {
		dst.MaxMilestones = src.MaxMilestones
	}
	if src.MaxFiles > 0 {
		dst.MaxFiles = src.MaxFiles
	}
	if len(src.IgnorePatterns) > 0 {
		dst.IgnorePatterns = src.IgnorePatterns
	}
	if src.Debug {
		dst.Debug = true
	}
}

// StatePath returns the state directory for workDir. An absolute state_dir
// is used as is.
func (c Config) StatePath(workDir string) string {
	return resolve(workDir, c.StateDir)
}

func resolve(workDir, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(workDir, dir)
}

// ChecklistPath returns the checklist document location for workDir.
func (c Config) ChecklistPath(workDir string) string {
	return filepath.Join(workDir, c.ChecklistFile)
}

// ProgressPath returns the snapshot document location for workDir.
func (c Config) ProgressPath(workDir string) string {
	return filepath.Join(c.StatePath(workDir), c.ProgressFile)
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError is returned when a config key holds an unusable value.
type ValidationError struct {
	Key    string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Key + " " + strconv.Quote(e.Value) + ": " + e.Reason
}
