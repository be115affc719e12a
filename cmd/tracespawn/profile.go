package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/criyle/go-tracespawn/runner"
	"gopkg.in/yaml.v3"
)

// Profile is a launch profile stored as YAML or TOML
type Profile struct {
	Args     []string `yaml:"args" toml:"args"`
	Env      []string `yaml:"env" toml:"env"`
	WorkDir  string   `yaml:"workDir" toml:"work_dir"`
	Stdin    string   `yaml:"stdin" toml:"stdin"`
	Stdout   string   `yaml:"stdout" toml:"stdout"`
	Stderr   string   `yaml:"stderr" toml:"stderr"`
	Launcher string   `yaml:"launcher" toml:"launcher"`
	Memfd    bool     `yaml:"memfd" toml:"memfd"`

	CPU      uint64        `yaml:"cpu" toml:"cpu"`
	Wall     time.Duration `yaml:"wall" toml:"wall"`
	Memory   runner.Size   `yaml:"memory" toml:"memory"`
	FileSize runner.Size   `yaml:"fileSize" toml:"file_size"`
	Stack    runner.Size   `yaml:"stack" toml:"stack"`
	NoFile   uint64        `yaml:"nofile" toml:"nofile"`

	DenySyscalls []string `yaml:"denySyscalls" toml:"deny_syscalls"`
}

// loadProfile decodes the profile by its file extension
func loadProfile(path string) (*Profile, error) {
	p := new(Profile)
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(p); err != nil {
			return nil, fmt.Errorf("profile %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.DecodeFile(path, p)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", path, err)
		}
		if un := md.Undecoded(); len(un) > 0 {
			return nil, fmt.Errorf("profile %s: unknown keys %v", path, un)
		}
	default:
		return nil, fmt.Errorf("profile %s: unknown format %q", path, ext)
	}
	return p, nil
}
