// Package runmeta records what a server run needs to be replayed: the world
// id, the seed and the tuning in effect. It is written once at startup.
package runmeta

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"gridsnake.io/internal/sim/tuning"
)

const FileName = "run.yaml"

type Meta struct {
	WorldID   string        `yaml:"world_id"`
	Seed      int64         `yaml:"seed"`
	StartedAt time.Time     `yaml:"started_at"`
	Tuning    tuning.Tuning `yaml:"tuning"`
}

func Write(dir string, m Meta) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("run meta: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, FileName), b, 0o644)
}

func Read(dir string) (Meta, error) {
	var m Meta
	b, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("%s: %w", FileName, err)
	}
	if err := m.Tuning.Validate(); err != nil {
		return m, fmt.Errorf("%s: %w", FileName, err)
	}
	return m, nil
}
