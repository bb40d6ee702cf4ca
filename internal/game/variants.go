package game

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"sort"
	"strings"
)

//go:embed customer_configs/*.json
var embeddedCustomerConfigs embed.FS

// globalVariantLibrary holds every compiled customer variant. Loaded once at
// package init; a broken config is a programmer error and panics.
var globalVariantLibrary = mustLoadVariantLibrary()

// ErrNoVariantUnlocked reports a level with no eligible customer variant.
// This is a configuration error: reported, not retried.
var ErrNoVariantUnlocked = errors.New("no customer variant unlocked for level")

// CustomerVariant is one compiled customer archetype.
type CustomerVariant struct {
	Name               string
	UnlockLevel        int
	Patience           float64
	OrderDelaySeconds  float64
	ReactionSeconds    float64
	WalkInSeconds      float64
	WalkOutSeconds     float64
	WalkOutSadSeconds  float64
	PreferredFoods     []FoodType
	ArriveAnimation    string
	DepartAnimation    string
	DepartSadAnimation string
}

// VariantDocument is the designer-authored JSON shape for one variant.
type VariantDocument struct {
	Name               string   `json:"name" jsonschema:"required"`
	UnlockLevel        int      `json:"unlockLevel"`
	Patience           float64  `json:"patience" jsonschema:"required"`
	OrderDelaySeconds  float64  `json:"orderDelaySeconds" jsonschema:"required"`
	ReactionSeconds    float64  `json:"reactionSeconds"`
	WalkInSeconds      float64  `json:"walkInSeconds" jsonschema:"required"`
	WalkOutSeconds     float64  `json:"walkOutSeconds" jsonschema:"required"`
	WalkOutSadSeconds  float64  `json:"walkOutSadSeconds"`
	PreferredFoods     []string `json:"preferredFoods"`
	ArriveAnimation    string   `json:"arriveAnimation"`
	DepartAnimation    string   `json:"departAnimation"`
	DepartSadAnimation string   `json:"departSadAnimation"`
}

// VariantLibrary indexes compiled variants by name.
type VariantLibrary struct {
	variants []*CustomerVariant
	byName   map[string]*CustomerVariant
}

func mustLoadVariantLibrary() *VariantLibrary {
	library, err := loadVariantLibrary(embeddedCustomerConfigs, "customer_configs")
	if err != nil {
		panic(fmt.Sprintf("customer variant library: %v", err))
	}
	return library
}

func loadVariantLibrary(fsys fs.FS, dir string) (*VariantLibrary, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	library := &VariantLibrary{byName: make(map[string]*CustomerVariant)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var doc VariantDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		variant, err := compileVariant(doc)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", entry.Name(), err)
		}
		if _, dup := library.byName[variant.Name]; dup {
			return nil, fmt.Errorf("duplicate variant name %q", variant.Name)
		}
		library.byName[variant.Name] = variant
		library.variants = append(library.variants, variant)
	}
	if len(library.variants) == 0 {
		return nil, fmt.Errorf("no variants defined in %s", dir)
	}
	sort.Slice(library.variants, func(i, j int) bool {
		return library.variants[i].Name < library.variants[j].Name
	})
	return library, nil
}

func compileVariant(doc VariantDocument) (*CustomerVariant, error) {
	if doc.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	if doc.Patience <= 0 {
		return nil, fmt.Errorf("patience must be > 0, got %v", doc.Patience)
	}
	if doc.OrderDelaySeconds < 0 {
		return nil, fmt.Errorf("orderDelaySeconds must be >= 0, got %v", doc.OrderDelaySeconds)
	}
	if doc.WalkInSeconds <= 0 || doc.WalkOutSeconds <= 0 {
		return nil, fmt.Errorf("walk durations must be > 0")
	}
	variant := &CustomerVariant{
		Name:               doc.Name,
		UnlockLevel:        doc.UnlockLevel,
		Patience:           doc.Patience,
		OrderDelaySeconds:  doc.OrderDelaySeconds,
		ReactionSeconds:    doc.ReactionSeconds,
		WalkInSeconds:      doc.WalkInSeconds,
		WalkOutSeconds:     doc.WalkOutSeconds,
		WalkOutSadSeconds:  doc.WalkOutSadSeconds,
		ArriveAnimation:    doc.ArriveAnimation,
		DepartAnimation:    doc.DepartAnimation,
		DepartSadAnimation: doc.DepartSadAnimation,
	}
	if variant.ReactionSeconds <= 0 {
		variant.ReactionSeconds = 1.2
	}
	for _, raw := range doc.PreferredFoods {
		t, ok := ParseFoodType(raw)
		if !ok {
			return nil, fmt.Errorf("unknown preferred food %q", raw)
		}
		variant.PreferredFoods = append(variant.PreferredFoods, t)
	}
	return variant, nil
}

// VariantLibraryDefault returns the library compiled from the embedded
// configs.
func VariantLibraryDefault() *VariantLibrary {
	return globalVariantLibrary
}

// ByName looks a variant up by its config name.
func (l *VariantLibrary) ByName(name string) (*CustomerVariant, bool) {
	if l == nil {
		return nil, false
	}
	v, ok := l.byName[name]
	return v, ok
}

// UnlockedFor lists variants whose unlock level gate admits the given level.
func (l *VariantLibrary) UnlockedFor(level int) []*CustomerVariant {
	if l == nil {
		return nil
	}
	unlocked := make([]*CustomerVariant, 0, len(l.variants))
	for _, v := range l.variants {
		if v.UnlockLevel <= level {
			unlocked = append(unlocked, v)
		}
	}
	return unlocked
}

// PickRandom samples uniformly among the variants unlocked for the level.
func (l *VariantLibrary) PickRandom(level int, rng *rand.Rand) (*CustomerVariant, error) {
	unlocked := l.UnlockedFor(level)
	if len(unlocked) == 0 {
		return nil, fmt.Errorf("%w: level %d", ErrNoVariantUnlocked, level)
	}
	if rng == nil {
		return unlocked[0], nil
	}
	return unlocked[rng.Intn(len(unlocked))], nil
}

// PrefersAny reports whether any served item is on the variant's preferred
// list; preference decides the departure mood on partial orders.
func (v *CustomerVariant) PrefersAny(items []FoodType) bool {
	if v == nil || len(v.PreferredFoods) == 0 {
		return false
	}
	for _, item := range items {
		for _, pref := range v.PreferredFoods {
			if item == pref {
				return true
			}
		}
	}
	return false
}
