package game

import (
	"math/rand"
	"testing"
)

func TestVariantLibraryLoadsEmbeddedConfigs(t *testing.T) {
	library := VariantLibraryDefault()
	if library == nil {
		t.Fatalf("nil default library")
	}
	regular, ok := library.ByName("regular")
	if !ok {
		t.Fatalf("regular variant missing")
	}
	if regular.Patience <= 0 || regular.WalkInSeconds <= 0 {
		t.Fatalf("regular variant not compiled: %+v", regular)
	}
	if regular.ReactionSeconds <= 0 {
		t.Fatalf("reaction default not applied")
	}
}

func TestUnlockGatingFiltersByLevel(t *testing.T) {
	library := VariantLibraryDefault()

	early := library.UnlockedFor(0)
	late := library.UnlockedFor(10)
	if len(early) == 0 {
		t.Fatalf("no variants unlocked at level 0")
	}
	if len(late) < len(early) {
		t.Fatalf("higher level unlocked fewer variants: %d < %d", len(late), len(early))
	}
	for _, v := range early {
		if v.UnlockLevel > 0 {
			t.Fatalf("variant %s with unlock %d returned for level 0", v.Name, v.UnlockLevel)
		}
	}

	foodie, ok := library.ByName("foodie")
	if !ok {
		t.Fatalf("foodie variant missing")
	}
	for _, v := range library.UnlockedFor(foodie.UnlockLevel - 1) {
		if v.Name == "foodie" {
			t.Fatalf("foodie unlocked below its gate")
		}
	}
}

func TestPickRandomOnlyReturnsUnlocked(t *testing.T) {
	library := VariantLibraryDefault()
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		v, err := library.PickRandom(0, rng)
		if err != nil {
			t.Fatalf("pick failed: %v", err)
		}
		if v.UnlockLevel > 0 {
			t.Fatalf("picked locked variant %s", v.Name)
		}
	}
}

func TestPrefersAny(t *testing.T) {
	foodie, ok := VariantLibraryDefault().ByName("foodie")
	if !ok {
		t.Fatalf("foodie variant missing")
	}
	if !foodie.PrefersAny([]FoodType{FoodSalad, FoodTaco}) {
		t.Fatalf("foodie should prefer taco")
	}
	if foodie.PrefersAny([]FoodType{FoodSalad, FoodCoffee}) {
		t.Fatalf("foodie should not prefer salad or coffee")
	}

	regular, _ := VariantLibraryDefault().ByName("regular")
	if regular.PrefersAny([]FoodType{FoodBurger}) {
		t.Fatalf("variant with no preferences should never prefer")
	}
}

func TestCompileVariantValidation(t *testing.T) {
	cases := []struct {
		name string
		doc  VariantDocument
	}{
		{"missing name", VariantDocument{Patience: 1, WalkInSeconds: 1, WalkOutSeconds: 1}},
		{"zero patience", VariantDocument{Name: "x", WalkInSeconds: 1, WalkOutSeconds: 1}},
		{"zero walk", VariantDocument{Name: "x", Patience: 1}},
		{"unknown food", VariantDocument{Name: "x", Patience: 1, WalkInSeconds: 1, WalkOutSeconds: 1, PreferredFoods: []string{"sushi"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := compileVariant(tc.doc); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
