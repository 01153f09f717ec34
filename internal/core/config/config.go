// Package config loads and validates the .cddrc.json / cdd.config.json
// configuration file consulted by the resolution-and-cycle pipeline.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cderrors "tscircular/internal/core/errors"
	"tscircular/internal/shared/util"
)

// FileNames are the configuration file names searched for during upward
// discovery, in preference order.
var FileNames = []string{".cddrc.json", "cdd.config.json"}

// AllowedCycle is one entry of the allowlist: an exact file set plus the
// reason it is tolerated.
type AllowedCycle struct {
	Files  []string `json:"files"`
	Reason string   `json:"reason,omitempty"`
}

// Config is the on-disk shape of the configuration file, field-for-field per
// the pinned external interface.
type Config struct {
	Exclude           []string       `json:"exclude"`
	IgnoreTypeImports bool           `json:"ignore_type_imports"`
	ExpectedCycles    int            `json:"expected_cycles"`
	ExpectedHash      string         `json:"expected_hash,omitempty"`
	AllowedCycles     []AllowedCycle `json:"allowed_cycles"`

	// Path is the file this config was loaded from, empty when defaults
	// were used because no file was found. Not serialized.
	Path string `json:"-"`
}

// Default returns the configuration applied when no file is found.
func Default() *Config {
	cfg := &Config{
		Exclude:           []string{"node_modules", "dist"},
		IgnoreTypeImports: false,
		ExpectedCycles:    0,
		AllowedCycles:     []AllowedCycle{},
	}
	applyDefaults(cfg)
	return cfg
}

// Discover walks upward from startDir looking for one of FileNames, stopping
// at the filesystem root. Returns "" if none is found.
func Discover(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = startDir
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads and validates the config file at path. A missing or unreadable
// file is returned as an IO_NOT_FOUND error; callers that want Default when
// no file exists check with Discover first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		wrapped := cderrors.Wrap(err, cderrors.CodeIONotFound, "read config file")
		return nil, cderrors.AddContext(wrapped, cderrors.CtxConfigFile, path)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, configMalformed(path, err)
	}
	cfg.Path = path

	applyDefaults(&cfg)

	if err := validateExclude(&cfg); err != nil {
		return nil, err
	}
	if err := validateAllowedCycles(&cfg); err != nil {
		return nil, err
	}
	if err := validateExpectedHash(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func configMalformed(path string, cause error) error {
	msg := fmt.Sprintf("malformed configuration file %s: %v", path, cause)
	return cderrors.AddContext(
		cderrors.Wrap(cause, cderrors.CodeConfigMalformed, msg),
		cderrors.CtxConfigFile, path,
	)
}

func applyDefaults(cfg *Config) {
	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}
	if cfg.AllowedCycles == nil {
		cfg.AllowedCycles = []AllowedCycle{}
	}
	if cfg.ExpectedCycles < 0 {
		cfg.ExpectedCycles = 0
	}
}

func validateExclude(cfg *Config) error {
	for i, pattern := range cfg.Exclude {
		if strings.TrimSpace(pattern) == "" {
			return cderrors.New(cderrors.CodeConfigMalformed,
				fmt.Sprintf("exclude[%d] must not be empty", i))
		}
	}
	return nil
}

func validateAllowedCycles(cfg *Config) error {
	for i, entry := range cfg.AllowedCycles {
		ref := fmt.Sprintf("allowed_cycles[%d]", i)
		if len(entry.Files) == 0 {
			return cderrors.New(cderrors.CodeConfigMalformed, ref+".files must not be empty")
		}
		for j, f := range entry.Files {
			if strings.TrimSpace(f) == "" {
				return cderrors.New(cderrors.CodeConfigMalformed,
					fmt.Sprintf("%s.files[%d] must not be empty", ref, j))
			}
		}
	}
	return nil
}

func validateExpectedHash(cfg *Config) error {
	if cfg.ExpectedHash == "" {
		return nil
	}
	if len(cfg.ExpectedHash) != 12 {
		return cderrors.New(cderrors.CodeConfigMalformed,
			fmt.Sprintf("expected_hash must be a 12-character hex digest, got %q", cfg.ExpectedHash))
	}
	for _, r := range cfg.ExpectedHash {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return cderrors.New(cderrors.CodeConfigMalformed,
				fmt.Sprintf("expected_hash must be hex, got %q", cfg.ExpectedHash))
		}
	}
	return nil
}

// Save writes the config back to its Path (or to path if given) as indented
// JSON, used by --init and --update-hash.
func (c *Config) Save(path string) error {
	if path == "" {
		path = c.Path
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return util.WriteFileWithDirs(path, append(data, '\n'), 0o644)
}

// WithUpdatedHash returns a copy of the config with ExpectedCycles and
// ExpectedHash set to the observed values, for --update-hash.
func (c *Config) WithUpdatedHash(cycleCount int, hash string) *Config {
	clone := *c
	clone.ExpectedCycles = cycleCount
	clone.ExpectedHash = hash
	return &clone
}
