package game

// Event is one fire-and-forget UI signal drained by the hub after each tick
// and broadcast to subscribers. The core never consumes a return value.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Wire event types.
const (
	EventOrderShown    = "order_shown"
	EventOrderHidden   = "order_hidden"
	EventTimer         = "timer"
	EventScoreChanged  = "score_changed"
	EventComboChanged  = "combo_changed"
	EventCustomer      = "customer"
	EventLevelStarted  = "level_started"
	EventLevelComplete = "level_complete"
	EventSession       = "session"
	EventPlate         = "plate"
	EventTrays         = "trays"
)

// OrderView is the displayed order as the UI sees it.
type OrderView struct {
	Items            []FoodType `json:"items"`
	SecondsRemaining float64    `json:"secondsRemaining"`
}

// ScoreView carries the scoring state.
type ScoreView struct {
	LevelScore int `json:"levelScore"`
	TotalScore int `json:"totalScore"`
	Streak     int `json:"streak"`
	Multiplier int `json:"multiplier"`
}

// CustomerView is the renderable state of the current customer.
type CustomerView struct {
	ID        string  `json:"id"`
	Variant   string  `json:"variant"`
	Phase     string  `json:"phase"`
	Progress  float64 `json:"progress"`
	Happy     bool    `json:"happy"`
	Animation string  `json:"animation,omitempty"`
}

// TrayView is one supply tray.
type TrayView struct {
	Food    FoodType `json:"food"`
	Label   string   `json:"label"`
	Icon    string   `json:"icon"`
	Enabled bool     `json:"enabled"`
}

// PlateView is the serving surface contents.
type PlateView struct {
	Items    []FoodType `json:"items"`
	Capacity int        `json:"capacity"`
}

// SessionView mirrors the persisted session record for the UI.
type SessionView struct {
	ID              string `json:"id"`
	TotalScore      int    `json:"totalScore"`
	CurrentLevel    int    `json:"currentLevel"`
	LevelsCompleted int    `json:"levelsCompleted"`
	Active          bool   `json:"active"`
}

// Snapshot is the full world state broadcast with every tick.
type Snapshot struct {
	Tick            uint64        `json:"tick"`
	Level           int           `json:"level"`
	OrdersRequired  int           `json:"ordersRequired"`
	OrdersCompleted int           `json:"ordersCompleted"`
	CycleState      string        `json:"cycleState"`
	Order           *OrderView    `json:"order,omitempty"`
	Score           ScoreView     `json:"score"`
	Customer        *CustomerView `json:"customer,omitempty"`
	Trays           []TrayView    `json:"trays"`
	Plate           PlateView     `json:"plate"`
	Session         *SessionView  `json:"session,omitempty"`
}
