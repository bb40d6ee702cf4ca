package game

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed levels.yaml
var embeddedLevels []byte

// LevelConfig captures the per-level tunables. Immutable once a level starts.
type LevelConfig struct {
	Index                  int     `yaml:"index" json:"index"`
	OrdersRequired         int     `yaml:"ordersRequired" json:"ordersRequired"`
	OrderDisplaySeconds    float64 `yaml:"orderDisplaySeconds" json:"orderDisplaySeconds"`
	InterOrderDelaySeconds float64 `yaml:"interOrderDelaySeconds" json:"interOrderDelaySeconds"`
	MinOrderItems          int     `yaml:"minOrderItems" json:"minOrderItems"`
	MaxOrderItems          int     `yaml:"maxOrderItems" json:"maxOrderItems"`
	ActiveTrayCount        int     `yaml:"activeTrayCount" json:"activeTrayCount"`
	BasePointsPerOrder     int     `yaml:"basePointsPerOrder" json:"basePointsPerOrder"`
	PerfectOrderBonus      int     `yaml:"perfectOrderBonus" json:"perfectOrderBonus"`
	TimeBonusPerSecond     int     `yaml:"timeBonusPerSecond" json:"timeBonusPerSecond"`
	PlateCapacity          int     `yaml:"plateCapacity" json:"plateCapacity"`
}

// Validate rejects configurations the order cycle cannot run with.
func (c LevelConfig) Validate() error {
	if c.OrdersRequired < 1 {
		return fmt.Errorf("level %d: ordersRequired must be >= 1, got %d", c.Index, c.OrdersRequired)
	}
	if c.OrderDisplaySeconds <= 0 {
		return fmt.Errorf("level %d: orderDisplaySeconds must be > 0, got %v", c.Index, c.OrderDisplaySeconds)
	}
	if c.InterOrderDelaySeconds < 0 {
		return fmt.Errorf("level %d: interOrderDelaySeconds must be >= 0, got %v", c.Index, c.InterOrderDelaySeconds)
	}
	if c.MinOrderItems < 1 {
		return fmt.Errorf("level %d: minOrderItems must be >= 1, got %d", c.Index, c.MinOrderItems)
	}
	if c.MaxOrderItems < c.MinOrderItems {
		return fmt.Errorf("level %d: maxOrderItems %d < minOrderItems %d", c.Index, c.MaxOrderItems, c.MinOrderItems)
	}
	if c.ActiveTrayCount < 1 {
		return fmt.Errorf("level %d: activeTrayCount must be >= 1, got %d", c.Index, c.ActiveTrayCount)
	}
	if c.PlateCapacity < 1 {
		return fmt.Errorf("level %d: plateCapacity must be >= 1, got %d", c.Index, c.PlateCapacity)
	}
	return nil
}

// LevelProvider exposes an ordered list of level configurations. The core
// only reads by index.
type LevelProvider struct {
	levels []LevelConfig
}

type levelFile struct {
	Levels []LevelConfig `yaml:"levels"`
}

// NewLevelProvider parses a YAML level list.
func NewLevelProvider(data []byte) (*LevelProvider, error) {
	var file levelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse levels: %w", err)
	}
	if len(file.Levels) == 0 {
		return nil, fmt.Errorf("parse levels: no levels defined")
	}
	for i := range file.Levels {
		file.Levels[i].Index = i
		if err := file.Levels[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &LevelProvider{levels: file.Levels}, nil
}

// LoadLevelProvider reads levels from path, falling back to the embedded
// default set when path is empty.
func LoadLevelProvider(path string) (*LevelProvider, error) {
	if path == "" {
		return NewLevelProvider(embeddedLevels)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read levels %s: %w", path, err)
	}
	return NewLevelProvider(data)
}

// ByIndex returns the configuration for a level index.
func (p *LevelProvider) ByIndex(index int) (LevelConfig, bool) {
	if p == nil || index < 0 || index >= len(p.levels) {
		return LevelConfig{}, false
	}
	return p.levels[index], true
}

// Count reports how many levels are defined.
func (p *LevelProvider) Count() int {
	if p == nil {
		return 0
	}
	return len(p.levels)
}
