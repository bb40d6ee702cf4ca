package game

// TraySupply is the read side of the supply trays. The core never mutates
// trays; the player-facing command layer does.
type TraySupply interface {
	ActiveFoodTypes() []FoodType
	ActiveTrayCount() int
}

// ServingSurface is the read side of the plate the player assembles on.
type ServingSurface interface {
	ServedItemTypes() []FoodType
	IsFull() bool
}

// TrayRack is the default TraySupply: a fixed bank of trays, each bound to a
// food type and toggled on or off.
type TrayRack struct {
	order   []FoodType
	enabled map[FoodType]bool
}

// NewTrayRack builds a rack with the first count catalog foods enabled.
func NewTrayRack(count int) *TrayRack {
	catalog := FullCatalog()
	if count < 1 {
		count = 1
	}
	if count > len(catalog) {
		count = len(catalog)
	}
	rack := &TrayRack{
		order:   catalog,
		enabled: make(map[FoodType]bool, len(catalog)),
	}
	for i := 0; i < count; i++ {
		rack.enabled[catalog[i]] = true
	}
	return rack
}

// Reset re-enables the first count catalog trays and disables the rest.
// Called on level load so tray toggles never leak across levels.
func (r *TrayRack) Reset(count int) {
	if r == nil {
		return
	}
	if count < 1 {
		count = 1
	}
	if count > len(r.order) {
		count = len(r.order)
	}
	for i, t := range r.order {
		r.enabled[t] = i < count
	}
}

// SetEnabled toggles the tray for a food type. Unknown foods are ignored.
func (r *TrayRack) SetEnabled(t FoodType, enabled bool) {
	if r == nil {
		return
	}
	if _, ok := DisplayDef(t); !ok {
		return
	}
	r.enabled[t] = enabled
}

// ActiveFoodTypes lists enabled tray foods in stable catalog order.
func (r *TrayRack) ActiveFoodTypes() []FoodType {
	if r == nil {
		return nil
	}
	active := make([]FoodType, 0, len(r.order))
	for _, t := range r.order {
		if r.enabled[t] {
			active = append(active, t)
		}
	}
	return active
}

// ActiveTrayCount reports how many trays are enabled.
func (r *TrayRack) ActiveTrayCount() int {
	if r == nil {
		return 0
	}
	count := 0
	for _, on := range r.enabled {
		if on {
			count++
		}
	}
	return count
}

// Plate is the default ServingSurface with a bounded capacity.
type Plate struct {
	items    []FoodType
	capacity int
}

func NewPlate(capacity int) *Plate {
	if capacity < 1 {
		capacity = 1
	}
	return &Plate{items: make([]FoodType, 0, capacity), capacity: capacity}
}

// Add places one item on the plate. Returns false when the plate is full or
// the food type is unknown.
func (p *Plate) Add(t FoodType) bool {
	if p == nil || p.IsFull() {
		return false
	}
	if _, ok := DisplayDef(t); !ok {
		return false
	}
	p.items = append(p.items, t)
	return true
}

// Clear empties the plate.
func (p *Plate) Clear() {
	if p == nil {
		return
	}
	p.items = p.items[:0]
}

// SetCapacity resizes the plate for a new level, dropping overflow.
func (p *Plate) SetCapacity(capacity int) {
	if p == nil {
		return
	}
	if capacity < 1 {
		capacity = 1
	}
	p.capacity = capacity
	if len(p.items) > capacity {
		p.items = p.items[:capacity]
	}
}

// ServedItemTypes returns a copy of the plate contents in placement order.
func (p *Plate) ServedItemTypes() []FoodType {
	if p == nil {
		return nil
	}
	return append([]FoodType(nil), p.items...)
}

func (p *Plate) IsFull() bool {
	if p == nil {
		return true
	}
	return len(p.items) >= p.capacity
}

func (p *Plate) Capacity() int {
	if p == nil {
		return 0
	}
	return p.capacity
}

var (
	_ TraySupply     = (*TrayRack)(nil)
	_ ServingSurface = (*Plate)(nil)
)
