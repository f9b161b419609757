package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/statekeep/pkg/migrate"
	"github.com/cuemby/statekeep/pkg/types"
)

// scenario 6: restoring a "sets_v1" snapshot under active config
// "minimal_v1" (no head slot, no warrior_helm gearDef) removes the head
// slot entry, leaves warrior_helm in inventory unequipped, keeps the
// still-valid sword equipped, and bumps stateVersion by exactly 1.
func TestRun_Scenario6_RestoreUnderNarrowerConfig(t *testing.T) {
	state := types.NewGameState("instance_001", "sets_v1", 10)
	state.StateVersion = 5

	player := types.NewPlayer("player_1")
	char := types.NewCharacter("char_1", "warrior")
	char.Equipped["head"] = "helm_1"
	char.Equipped["right_hand"] = "sword_1"
	player.Characters["char_1"] = char
	player.Gear["helm_1"] = &types.Gear{ID: "helm_1", GearDefID: "warrior_helm", Level: 1, EquippedBy: "char_1"}
	player.Gear["sword_1"] = &types.Gear{ID: "sword_1", GearDefID: "sword_basic", Level: 1, EquippedBy: "char_1"}
	state.Players["player_1"] = player

	minimalV1 := &types.GameConfig{
		ConfigID: "minimal_v1",
		MaxLevel: 10,
		Stats:    []string{"strength"},
		Slots:    []string{"right_hand"},
		Classes: map[string]types.ClassDef{
			"warrior": {BaseStats: map[string]float64{"strength": 5}},
		},
		GearDefs: map[string]types.GearDef{
			"sword_basic": {BaseStats: map[string]float64{"strength": 3}, EquipPatterns: [][]string{{"right_hand"}}},
		},
	}

	out, report := migrate.Run(state, minimalV1)

	require.NotEmpty(t, report.Warnings)
	outChar := out.Players["player_1"].Characters["char_1"]
	_, headStillThere := outChar.Equipped["head"]
	assert.False(t, headStillThere)
	assert.Equal(t, "sword_1", outChar.Equipped["right_hand"])

	helm := out.Players["player_1"].Gear["helm_1"]
	assert.Equal(t, "", helm.EquippedBy)

	assert.Equal(t, uint64(6), out.StateVersion)
	assert.Equal(t, "minimal_v1", out.ConfigID)

	// input state must be untouched (Run is pure).
	assert.Equal(t, uint64(5), state.StateVersion)
	assert.Equal(t, "char_1", state.Players["player_1"].Gear["helm_1"].EquippedBy)
}

func TestRun_NoWarningsLeavesStateVersionUnchanged(t *testing.T) {
	state := types.NewGameState("instance_001", "cfg_v1", 10)
	state.StateVersion = 3
	player := types.NewPlayer("player_1")
	char := types.NewCharacter("char_1", "warrior")
	player.Characters["char_1"] = char
	state.Players["player_1"] = player

	cfg := &types.GameConfig{
		ConfigID: "cfg_v1",
		MaxLevel: 10,
		Stats:    []string{"strength"},
		Slots:    []string{"right_hand"},
		Classes:  map[string]types.ClassDef{"warrior": {BaseStats: map[string]float64{"strength": 5}}},
		GearDefs: map[string]types.GearDef{},
	}

	out, report := migrate.Run(state, cfg)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, uint64(3), out.StateVersion)
}

func TestRun_OrphanedGearDefPreservesGearInInventory(t *testing.T) {
	state := types.NewGameState("instance_001", "cfg_v1", 10)
	player := types.NewPlayer("player_1")
	char := types.NewCharacter("char_1", "warrior")
	char.Equipped["right_hand"] = "gear_1"
	player.Characters["char_1"] = char
	player.Gear["gear_1"] = &types.Gear{ID: "gear_1", GearDefID: "vanished_def", Level: 1, EquippedBy: "char_1"}
	state.Players["player_1"] = player

	cfg := &types.GameConfig{
		ConfigID: "cfg_v2",
		MaxLevel: 10,
		Stats:    []string{"strength"},
		Slots:    []string{"right_hand"},
		Classes:  map[string]types.ClassDef{"warrior": {BaseStats: map[string]float64{"strength": 5}}},
		GearDefs: map[string]types.GearDef{},
	}

	out, report := migrate.Run(state, cfg)
	require.NotEmpty(t, report.Warnings)

	gear, ok := out.Players["player_1"].Gear["gear_1"]
	require.True(t, ok, "gear must remain in inventory")
	assert.Equal(t, "", gear.EquippedBy)
	_, stillEquipped := out.Players["player_1"].Characters["char_1"].Equipped["right_hand"]
	assert.False(t, stillEquipped)
}

func TestRun_EquipPatternMismatchIsOrderInsensitive(t *testing.T) {
	state := types.NewGameState("instance_001", "cfg_v1", 10)
	player := types.NewPlayer("player_1")
	char := types.NewCharacter("char_1", "warrior")
	char.Equipped["offhand"] = "gear_1"
	char.Equipped["mainhand"] = "gear_1"
	player.Characters["char_1"] = char
	player.Gear["gear_1"] = &types.Gear{ID: "gear_1", GearDefID: "greatsword", Level: 1, EquippedBy: "char_1"}
	state.Players["player_1"] = player

	cfg := &types.GameConfig{
		ConfigID: "cfg_v1",
		MaxLevel: 10,
		Stats:    []string{"strength"},
		Slots:    []string{"mainhand", "offhand"},
		Classes:  map[string]types.ClassDef{"warrior": {BaseStats: map[string]float64{"strength": 5}}},
		GearDefs: map[string]types.GearDef{
			"greatsword": {EquipPatterns: [][]string{{"mainhand", "offhand"}}},
		},
	}

	out, report := migrate.Run(state, cfg)
	// slots {offhand, mainhand} as a multiset equal {mainhand, offhand}: matches.
	assert.Empty(t, report.Warnings)
	assert.Equal(t, "gear_1", out.Players["player_1"].Characters["char_1"].Equipped["mainhand"])
}
