package sim

import "time"

// CommandType enumerates the player-facing actions the world accepts.
type CommandType string

const (
	CommandPlaceItem     CommandType = "place_item"
	CommandClearPlate    CommandType = "clear_plate"
	CommandServe         CommandType = "serve"
	CommandToggleTray    CommandType = "toggle_tray"
	CommandAnimationDone CommandType = "animation_done"
)

// AnimationStage names which walk animation a client reports complete.
const (
	AnimationStageArrive = "arrive"
	AnimationStageDepart = "depart"
)

// Command is one staged player action, applied at the start of a tick.
type Command struct {
	OriginTick uint64      `json:"originTick"`
	ActorID    string      `json:"actorId"`
	Type       CommandType `json:"type"`
	IssuedAt   time.Time   `json:"issuedAt"`

	Place     *PlaceItemCommand     `json:"place,omitempty"`
	Tray      *ToggleTrayCommand    `json:"tray,omitempty"`
	Animation *AnimationDoneCommand `json:"animation,omitempty"`
}

// PlaceItemCommand puts one food item on the serving surface.
type PlaceItemCommand struct {
	Food string `json:"food"`
}

// ToggleTrayCommand enables or disables a supply tray.
type ToggleTrayCommand struct {
	Food    string `json:"food"`
	Enabled bool   `json:"enabled"`
}

// AnimationDoneCommand reports a customer walk animation as finished.
type AnimationDoneCommand struct {
	Stage string `json:"stage"`
}
