package model

// GameInfo is the free-form metadata map a game advertises to controllers
// before they join (name, version, anything else the game wants known).
type GameInfo map[string]string

// Well-known info keys.
const (
	InfoKeyName    = "Game_Name"
	InfoKeyVersion = "Version"
)

// ControlKind distinguishes the three flavors of control input.
type ControlKind string

const (
	ControlButton    ControlKind = "button"
	ControlAxis      ControlKind = "axis"
	ControlDirection ControlKind = "direction"
)

// ControlKeys is the set of keys a game has registered, by kind. A control
// value from a player is only recorded for a registered key; each kind is
// validated against its own table.
type ControlKeys struct {
	Buttons    map[uint8]string `json:"buttons"`
	Axes       map[uint8]string `json:"axes"`
	Directions map[uint8]string `json:"directions"`
}

// NewControlKeys returns an empty key table set.
func NewControlKeys() ControlKeys {
	return ControlKeys{
		Buttons:    make(map[uint8]string),
		Axes:       make(map[uint8]string),
		Directions: make(map[uint8]string),
	}
}

// Archive is the persistable slice of game runtime state: the accounts the
// game has banned. Online players are never archived.
type Archive struct {
	Banned []Account `json:"banned"`
}

// GameData describes a game before its runtime exists: advertised info,
// registered control keys and a previously saved archive. Built fluently:
//
//	data := model.NewGameData().Name("Demo").Button(3, "jump")
type GameData struct {
	Info    GameInfo
	Keys    ControlKeys
	Archive Archive
}

// NewGameData creates game data with an empty info map and key tables.
func NewGameData() *GameData {
	return &GameData{
		Info: make(GameInfo),
		Keys: NewControlKeys(),
	}
}

// Name sets the advertised game name.
func (d *GameData) Name(name string) *GameData {
	return d.SetInfo(InfoKeyName, name)
}

// Version sets the advertised game version.
func (d *GameData) Version(version string) *GameData {
	return d.SetInfo(InfoKeyVersion, version)
}

// SetInfo sets an arbitrary info entry.
func (d *GameData) SetInfo(key, value string) *GameData {
	d.Info[key] = value
	return d
}

// Button registers a button key with a human-readable label.
func (d *GameData) Button(key uint8, label string) *GameData {
	d.Keys.Buttons[key] = label
	return d
}

// Axis registers an axis key.
func (d *GameData) Axis(key uint8, label string) *GameData {
	d.Keys.Axes[key] = label
	return d
}

// Direction registers a direction key.
func (d *GameData) Direction(key uint8, label string) *GameData {
	d.Keys.Directions[key] = label
	return d
}

// LoadArchive attaches a previously saved archive.
func (d *GameData) LoadArchive(archive Archive) *GameData {
	d.Archive = archive
	return d
}
