package game

import "sort"

// FoodType identifies one kind of servable item.
type FoodType string

const (
	FoodBurger   FoodType = "burger"
	FoodFries    FoodType = "fries"
	FoodDrink    FoodType = "drink"
	FoodHotdog   FoodType = "hotdog"
	FoodTaco     FoodType = "taco"
	FoodCoffee   FoodType = "coffee"
	FoodIceCream FoodType = "icecream"
	FoodSalad    FoodType = "salad"
)

// FoodDef describes how a food type renders as an order item. A food type
// without a definition is not displayable and never appears in an order.
type FoodDef struct {
	Type  FoodType `json:"type"`
	Label string   `json:"label"`
	Icon  string   `json:"icon"`
}

var foodDefs = map[FoodType]FoodDef{
	FoodBurger:   {Type: FoodBurger, Label: "Burger", Icon: "food-burger"},
	FoodFries:    {Type: FoodFries, Label: "Fries", Icon: "food-fries"},
	FoodDrink:    {Type: FoodDrink, Label: "Drink", Icon: "food-drink"},
	FoodHotdog:   {Type: FoodHotdog, Label: "Hot Dog", Icon: "food-hotdog"},
	FoodTaco:     {Type: FoodTaco, Label: "Taco", Icon: "food-taco"},
	FoodCoffee:   {Type: FoodCoffee, Label: "Coffee", Icon: "food-coffee"},
	FoodIceCream: {Type: FoodIceCream, Label: "Ice Cream", Icon: "food-icecream"},
	FoodSalad:    {Type: FoodSalad, Label: "Salad", Icon: "food-salad"},
}

// DisplayDef resolves the order-item definition for a food type.
func DisplayDef(t FoodType) (FoodDef, bool) {
	def, ok := foodDefs[t]
	return def, ok
}

// FullCatalog returns every displayable food type in stable order. Used as
// the fallback when no tray yields a usable active set.
func FullCatalog() []FoodType {
	catalog := make([]FoodType, 0, len(foodDefs))
	for t := range foodDefs {
		catalog = append(catalog, t)
	}
	sort.Slice(catalog, func(i, j int) bool { return catalog[i] < catalog[j] })
	return catalog
}

// ParseFoodType validates a wire string against the catalog.
func ParseFoodType(raw string) (FoodType, bool) {
	t := FoodType(raw)
	_, ok := foodDefs[t]
	return t, ok
}

func foodStrings(items []FoodType) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = string(item)
	}
	return out
}
