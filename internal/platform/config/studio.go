package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Studio holds the studio-level playout settings.
type Studio struct {
	FallbackPartDuration   time.Duration `yaml:"fallback_part_duration"`
	ForceQuickLoopAutoNext string        `yaml:"force_quickloop_autonext"`
}

// DefaultStudio is used for anything neither the file nor the environment sets.
var DefaultStudio = Studio{
	FallbackPartDuration:   3 * time.Second,
	ForceQuickLoopAutoNext: "disabled",
}

// LoadStudio reads studio settings from a YAML file, if path is not empty,
// then applies FALLBACK_PART_DURATION and FORCE_QUICKLOOP_AUTONEXT from the
// environment on top.
func LoadStudio(path string) (Studio, error) {
	st := DefaultStudio
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Studio{}, fmt.Errorf("read studio config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &st); err != nil {
			return Studio{}, fmt.Errorf("parse studio config %s: %w", path, err)
		}
	}
	st.FallbackPartDuration = GetEnvDuration("FALLBACK_PART_DURATION", st.FallbackPartDuration)
	st.ForceQuickLoopAutoNext = GetEnv("FORCE_QUICKLOOP_AUTONEXT", st.ForceQuickLoopAutoNext)
	return st, nil
}
