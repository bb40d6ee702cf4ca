package game

import "testing"

func TestEmbeddedLevelsLoad(t *testing.T) {
	provider, err := LoadLevelProvider("")
	if err != nil {
		t.Fatalf("embedded levels failed to load: %v", err)
	}
	if provider.Count() == 0 {
		t.Fatalf("no embedded levels")
	}
	for i := 0; i < provider.Count(); i++ {
		cfg, ok := provider.ByIndex(i)
		if !ok {
			t.Fatalf("level %d missing", i)
		}
		if cfg.Index != i {
			t.Fatalf("level %d has index %d", i, cfg.Index)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("level %d invalid: %v", i, err)
		}
	}
}

func TestNewLevelProviderRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty", "levels: []"},
		{"zero quota", `
levels:
  - ordersRequired: 0
    orderDisplaySeconds: 10
    minOrderItems: 1
    maxOrderItems: 2
    activeTrayCount: 2
    plateCapacity: 4
`},
		{"inverted bounds", `
levels:
  - ordersRequired: 3
    orderDisplaySeconds: 10
    minOrderItems: 3
    maxOrderItems: 1
    activeTrayCount: 2
    plateCapacity: 4
`},
		{"no display time", `
levels:
  - ordersRequired: 3
    orderDisplaySeconds: 0
    minOrderItems: 1
    maxOrderItems: 2
    activeTrayCount: 2
    plateCapacity: 4
`},
		{"not yaml", "{{{"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewLevelProvider([]byte(tc.yaml)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestByIndexOutOfRange(t *testing.T) {
	provider, err := LoadLevelProvider("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := provider.ByIndex(-1); ok {
		t.Fatalf("negative index accepted")
	}
	if _, ok := provider.ByIndex(provider.Count()); ok {
		t.Fatalf("past-the-end index accepted")
	}
}
