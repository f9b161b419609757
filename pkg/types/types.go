// Package types defines the entities shared by every layer of the
// engine: the immutable GameConfig a host loads at startup, and the
// mutable per-instance GameState a transaction touches.
package types

// GameConfig is an immutable description of one game's rules: its stat
// names, equipment slots, classes, gear definitions, set bonuses,
// algorithm selection, and stat clamps. Replacing it requires a process
// restart; nothing in this package mutates a GameConfig after load.
type GameConfig struct {
	ConfigID string   `json:"configId" yaml:"configId"`
	MaxLevel int      `json:"maxLevel" yaml:"maxLevel"`
	Stats    []string `json:"stats" yaml:"stats"`
	Slots    []string `json:"slots" yaml:"slots"`

	Classes  map[string]ClassDef `json:"classes" yaml:"classes"`
	GearDefs map[string]GearDef  `json:"gearDefs" yaml:"gearDefs"`
	Sets     map[string]SetDef   `json:"sets" yaml:"sets"`

	Algorithms AlgorithmsConfig      `json:"algorithms" yaml:"algorithms"`
	Clamps     map[string]StatClamp `json:"clamps,omitempty" yaml:"clamps,omitempty"`
}

// ClassDef is a character class's level-1 base stats.
type ClassDef struct {
	BaseStats map[string]float64 `json:"baseStats" yaml:"baseStats"`
}

// GearDef describes an equippable item definition: its base stats, the
// slot patterns it can occupy, optional set membership, and optional
// restrictions on who may equip it.
type GearDef struct {
	BaseStats     map[string]float64 `json:"baseStats" yaml:"baseStats"`
	EquipPatterns [][]string         `json:"equipPatterns" yaml:"equipPatterns"`
	SetID         string             `json:"setId,omitempty" yaml:"setId,omitempty"`
	SetPieceCount int                `json:"setPieceCount,omitempty" yaml:"setPieceCount,omitempty"`
	Restrictions  *Restrictions      `json:"restrictions,omitempty" yaml:"restrictions,omitempty"`
}

// Restrictions gates who may equip a GearDef.
type Restrictions struct {
	AllowedClasses         []string `json:"allowedClasses,omitempty" yaml:"allowedClasses,omitempty"`
	BlockedClasses         []string `json:"blockedClasses,omitempty" yaml:"blockedClasses,omitempty"`
	RequiredCharacterLevel int      `json:"requiredCharacterLevel,omitempty" yaml:"requiredCharacterLevel,omitempty"`
	MaxLevelDelta          int      `json:"maxLevelDelta,omitempty" yaml:"maxLevelDelta,omitempty"`
}

// SetDef is a logical grouping of gearDefs whose joint equipped presence
// activates tiered bonuses.
type SetDef struct {
	Bonuses []SetBonus `json:"bonuses" yaml:"bonuses"`
}

// SetBonus contributes BonusStats once activated_pieces >= Pieces.
type SetBonus struct {
	Pieces     int                `json:"pieces" yaml:"pieces"`
	BonusStats map[string]float64 `json:"bonusStats" yaml:"bonusStats"`
}

// AlgorithmRef names a registered algorithm and its parameters.
type AlgorithmRef struct {
	AlgorithmID string                 `json:"algorithmId" yaml:"algorithmId"`
	Parameters  map[string]interface{} `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// AlgorithmsConfig selects the growth and level-cost algorithms active
// for this config.
type AlgorithmsConfig struct {
	Growth             AlgorithmRef `json:"growth" yaml:"growth"`
	LevelCostCharacter AlgorithmRef `json:"levelCostCharacter" yaml:"levelCostCharacter"`
	LevelCostGear      AlgorithmRef `json:"levelCostGear" yaml:"levelCostGear"`
}

// StatClamp bounds a final computed stat. A nil bound is unbounded on
// that side.
type StatClamp struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Actor is a credential-holder identified by an opaque apiKey; it owns
// zero or more players.
type Actor struct {
	ID        string   `json:"id"`
	APIKey    string   `json:"apiKey"`
	PlayerIDs []string `json:"playerIds"`
}

// OwnsPlayer reports whether this actor owns playerID.
func (a *Actor) OwnsPlayer(playerID string) bool {
	for _, id := range a.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// Player is a container of characters, gear, and a resource wallet,
// owned by exactly one actor.
type Player struct {
	ID         string                 `json:"id"`
	Characters map[string]*Character  `json:"characters"`
	Gear       map[string]*Gear       `json:"gear"`
	Resources  map[string]int64       `json:"resources"`
}

// NewPlayer returns an empty Player with initialized maps.
func NewPlayer(id string) *Player {
	return &Player{
		ID:         id,
		Characters: make(map[string]*Character),
		Gear:       make(map[string]*Gear),
		Resources:  make(map[string]int64),
	}
}

// Character is a leveled entity belonging to a player, with a class and
// equipment. ClassID may become orphaned after a config change.
type Character struct {
	ID        string            `json:"id"`
	ClassID   string            `json:"classId"`
	Level     int               `json:"level"`
	Equipped  map[string]string `json:"equipped"` // slotId -> gearId
	Resources map[string]int64  `json:"resources"`
}

// NewCharacter returns a level-1 Character with empty equipment and
// wallet.
func NewCharacter(id, classID string) *Character {
	return &Character{
		ID:        id,
		ClassID:   classID,
		Level:     1,
		Equipped:  make(map[string]string),
		Resources: make(map[string]int64),
	}
}

// Gear is a leveled inventory item belonging to a player; it may be
// equipped to one of the player's characters. GearDefID may become
// orphaned after a config change.
type Gear struct {
	ID         string `json:"id"`
	GearDefID  string `json:"gearDefId"`
	Level      int    `json:"level"`
	EquippedBy string `json:"equippedBy,omitempty"` // characterId, empty if unequipped
}

// IsEquipped reports whether the gear is currently held by a character.
func (g *Gear) IsEquipped() bool {
	return g.EquippedBy != ""
}
