package engine_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/statekeep/pkg/algorithm"
	"github.com/cuemby/statekeep/pkg/auth"
	"github.com/cuemby/statekeep/pkg/engine"
	"github.com/cuemby/statekeep/pkg/types"
)

const adminKey = "admin-secret"

func newHarness(t *testing.T) (*engine.Processor, *types.GameState) {
	t.Helper()
	cfg := &types.GameConfig{
		ConfigID: "test_v1",
		MaxLevel: 3,
		Stats:    []string{"power"},
		Slots:    []string{"weapon", "offhand", "twoHand"},
		Classes: map[string]types.ClassDef{
			"warrior": {BaseStats: map[string]float64{"power": 10}},
		},
		GearDefs: map[string]types.GearDef{
			"sword": {
				BaseStats:     map[string]float64{"power": 5},
				EquipPatterns: [][]string{{"weapon"}},
			},
			"bow2h": {
				BaseStats:     map[string]float64{"power": 8},
				EquipPatterns: [][]string{{"weapon", "offhand"}},
			},
			"restricted": {
				BaseStats:     map[string]float64{"power": 1},
				EquipPatterns: [][]string{{"weapon"}},
				Restrictions:  &types.Restrictions{RequiredCharacterLevel: 2},
			},
		},
		Algorithms: types.AlgorithmsConfig{
			Growth: types.AlgorithmRef{AlgorithmID: "linear"},
			LevelCostCharacter: types.AlgorithmRef{
				AlgorithmID: "linear_cost",
				Parameters:  map[string]interface{}{"resourceId": "gold", "base": 50.0, "perLevel": 10.0},
			},
			LevelCostGear: types.AlgorithmRef{AlgorithmID: "flat"},
		},
	}

	registry := algorithm.NewRegistry()
	authz := auth.New(adminKey)
	p := engine.NewProcessor(cfg, registry, authz, nil)
	state := types.NewGameState("instance_001", cfg.ConfigID, 8)
	return p, state
}

func mustDecode(t *testing.T, out engine.Outcome) engine.Response {
	t.Helper()
	var resp engine.Response
	require.NoError(t, json.Unmarshal(out.Body, &resp))
	return resp
}

func createActor(t *testing.T, p *engine.Processor, state *types.GameState, actorID, apiKey string) {
	t.Helper()
	out := p.Process(state, adminKey, engine.Request{
		TxID: "create-actor-" + actorID, Type: engine.TxCreateActor, GameInstanceID: state.InstanceID,
		ActorID: actorID, APIKey: apiKey,
	})
	resp := mustDecode(t, out)
	require.True(t, resp.Accepted)
}

func createPlayer(t *testing.T, p *engine.Processor, state *types.GameState, apiKey, playerID string) {
	t.Helper()
	out := p.Process(state, apiKey, engine.Request{
		TxID: "create-player-" + playerID, Type: engine.TxCreatePlayer, GameInstanceID: state.InstanceID,
		PlayerID: playerID,
	})
	resp := mustDecode(t, out)
	require.True(t, resp.Accepted)
}

func TestProcess_InstanceMismatchIsTransportError(t *testing.T) {
	p, state := newHarness(t)
	out := p.Process(state, "", engine.Request{TxID: "tx1", Type: engine.TxCreateActor, GameInstanceID: "wrong_instance"})
	assert.NotEqual(t, 200, out.StatusCode)

	var te engine.TransportError
	require.NoError(t, json.Unmarshal(out.Body, &te))
	assert.Equal(t, engine.ErrInstanceMismatch, te.ErrorCode)
}

func TestProcess_AdminTxRequiresAdminKey(t *testing.T) {
	p, state := newHarness(t)
	out := p.Process(state, "not-the-admin-key", engine.Request{
		TxID: "tx1", Type: engine.TxCreateActor, GameInstanceID: state.InstanceID,
		ActorID: "actor_1", APIKey: "k1",
	})
	assert.Equal(t, 401, out.StatusCode)
}

func TestProcess_StateVersionIncrementsOnlyOnAcceptance(t *testing.T) {
	p, state := newHarness(t)
	createActor(t, p, state, "actor_1", "k1")
	before := state.StateVersion

	out := p.Process(state, adminKey, engine.Request{
		TxID: "dup-actor", Type: engine.TxCreateActor, GameInstanceID: state.InstanceID,
		ActorID: "actor_1", APIKey: "k1",
	})
	resp := mustDecode(t, out)
	assert.False(t, resp.Accepted)
	assert.Equal(t, engine.ErrAlreadyExists, resp.ErrorCode)
	assert.Equal(t, before, state.StateVersion, "a rejected transaction must not advance stateVersion")
}

func TestProcess_ReplayIsByteIdenticalAndSideEffectFree(t *testing.T) {
	p, state := newHarness(t)
	createActor(t, p, state, "actor_1", "k1")
	createPlayer(t, p, state, "k1", "player_1")

	req := engine.Request{TxID: "grant-1", Type: engine.TxGrantResources, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", Resources: map[string]int64{"gold": 100}}

	out1 := p.Process(state, adminKey, req)
	versionAfterFirst := state.StateVersion

	for i := 0; i < 3; i++ {
		out2 := p.Process(state, adminKey, req)
		assert.Equal(t, out1.StatusCode, out2.StatusCode)
		assert.Equal(t, out1.Body, out2.Body)
		assert.Equal(t, versionAfterFirst, state.StateVersion, "replay must not re-execute the side effect")
	}
}

func TestProcess_OwnershipViolationRejectsCrossActorAccess(t *testing.T) {
	p, state := newHarness(t)
	createActor(t, p, state, "actor_1", "k1")
	createActor(t, p, state, "actor_2", "k2")
	createPlayer(t, p, state, "k1", "player_1")

	out := p.Process(state, "k2", engine.Request{
		TxID: "create-char-cross", Type: engine.TxCreateCharacter, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_x", ClassID: "warrior",
	})
	resp := mustDecode(t, out)
	assert.False(t, resp.Accepted)
	assert.Equal(t, engine.ErrOwnershipViolation, resp.ErrorCode)
}

func TestLevelUpCharacter_SucceedsToMaxLevelThenRejectsBeyond(t *testing.T) {
	p, state := newHarness(t)
	createActor(t, p, state, "actor_1", "k1")
	createPlayer(t, p, state, "k1", "player_1")
	p.Process(state, "k1", engine.Request{TxID: "cc1", Type: engine.TxCreateCharacter, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", ClassID: "warrior"})
	p.Process(state, adminKey, engine.Request{TxID: "grant1", Type: engine.TxGrantResources, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", Resources: map[string]int64{"gold": 1000}})

	two := 2
	out := p.Process(state, "k1", engine.Request{TxID: "lvl1", Type: engine.TxLevelUpCharacter, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", Levels: &two})
	resp := mustDecode(t, out)
	require.True(t, resp.Accepted, "leveling to exactly maxLevel must succeed")

	out2 := p.Process(state, "k1", engine.Request{TxID: "lvl2", Type: engine.TxLevelUpCharacter, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1"})
	resp2 := mustDecode(t, out2)
	assert.False(t, resp2.Accepted, "leveling past maxLevel must reject")
	assert.Equal(t, engine.ErrMaxLevelReached, resp2.ErrorCode)
}

func TestLevelUpCharacter_InsufficientResourcesRejectsWithoutMutation(t *testing.T) {
	p, state := newHarness(t)
	createActor(t, p, state, "actor_1", "k1")
	createPlayer(t, p, state, "k1", "player_1")
	p.Process(state, "k1", engine.Request{TxID: "cc1", Type: engine.TxCreateCharacter, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", ClassID: "warrior"})

	out := p.Process(state, "k1", engine.Request{TxID: "lvl1", Type: engine.TxLevelUpCharacter, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1"})
	resp := mustDecode(t, out)
	assert.False(t, resp.Accepted)
	assert.Equal(t, engine.ErrInsufficientResources, resp.ErrorCode)

	view, err := p.PlayerState(state, p.ResolveActor(state, "k1"), "player_1")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Characters["char_1"].Level)
}

func TestEquipGear_StrictModeRejectsOccupiedSlot(t *testing.T) {
	p, state := newHarness(t)
	createActor(t, p, state, "actor_1", "k1")
	createPlayer(t, p, state, "k1", "player_1")
	p.Process(state, "k1", engine.Request{TxID: "cc1", Type: engine.TxCreateCharacter, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", ClassID: "warrior"})
	p.Process(state, "k1", engine.Request{TxID: "cg1", Type: engine.TxCreateGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", GearID: "gear_1", GearDefID: "sword"})
	p.Process(state, "k1", engine.Request{TxID: "cg2", Type: engine.TxCreateGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", GearID: "gear_2", GearDefID: "sword"})

	out := p.Process(state, "k1", engine.Request{TxID: "eq1", Type: engine.TxEquipGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", GearID: "gear_1"})
	require.True(t, mustDecode(t, out).Accepted)

	out2 := p.Process(state, "k1", engine.Request{TxID: "eq2", Type: engine.TxEquipGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", GearID: "gear_2"})
	resp2 := mustDecode(t, out2)
	assert.False(t, resp2.Accepted)
	assert.Equal(t, engine.ErrSlotOccupied, resp2.ErrorCode)
}

func TestEquipGear_SwapModeTwoSlotGearDisplacesOneSlotOccupant(t *testing.T) {
	p, state := newHarness(t)
	createActor(t, p, state, "actor_1", "k1")
	createPlayer(t, p, state, "k1", "player_1")
	p.Process(state, "k1", engine.Request{TxID: "cc1", Type: engine.TxCreateCharacter, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", ClassID: "warrior"})
	p.Process(state, "k1", engine.Request{TxID: "cg1", Type: engine.TxCreateGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", GearID: "gear_1", GearDefID: "sword"})
	p.Process(state, "k1", engine.Request{TxID: "cg2", Type: engine.TxCreateGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", GearID: "gear_2", GearDefID: "bow2h"})

	out := p.Process(state, "k1", engine.Request{TxID: "eq1", Type: engine.TxEquipGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", GearID: "gear_1"})
	require.True(t, mustDecode(t, out).Accepted)

	out2 := p.Process(state, "k1", engine.Request{TxID: "eq2", Type: engine.TxEquipGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", GearID: "gear_2", Swap: true})
	require.True(t, mustDecode(t, out2).Accepted)

	view, err := p.PlayerState(state, p.ResolveActor(state, "k1"), "player_1")
	require.NoError(t, err)
	assert.Empty(t, view.Gear["gear_1"].EquippedBy, "the displaced single-slot gear must be fully unequipped")
	assert.Equal(t, "char_1", view.Gear["gear_2"].EquippedBy)
	assert.Equal(t, "gear_2", view.Characters["char_1"].Equipped["weapon"])
	assert.Equal(t, "gear_2", view.Characters["char_1"].Equipped["offhand"])
}

func TestEquipGear_RestrictionFailedBelowRequiredLevel(t *testing.T) {
	p, state := newHarness(t)
	createActor(t, p, state, "actor_1", "k1")
	createPlayer(t, p, state, "k1", "player_1")
	p.Process(state, "k1", engine.Request{TxID: "cc1", Type: engine.TxCreateCharacter, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", ClassID: "warrior"})
	p.Process(state, "k1", engine.Request{TxID: "cg1", Type: engine.TxCreateGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", GearID: "gear_1", GearDefID: "restricted"})

	out := p.Process(state, "k1", engine.Request{TxID: "eq1", Type: engine.TxEquipGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", GearID: "gear_1"})
	resp := mustDecode(t, out)
	assert.False(t, resp.Accepted)
	assert.Equal(t, engine.ErrRestrictionFailed, resp.ErrorCode)
}

func TestUnequipGear_CharacterMismatchRejectsWrongCharacter(t *testing.T) {
	p, state := newHarness(t)
	createActor(t, p, state, "actor_1", "k1")
	createPlayer(t, p, state, "k1", "player_1")
	p.Process(state, "k1", engine.Request{TxID: "cc1", Type: engine.TxCreateCharacter, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", ClassID: "warrior"})
	p.Process(state, "k1", engine.Request{TxID: "cc2", Type: engine.TxCreateCharacter, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_2", ClassID: "warrior"})
	p.Process(state, "k1", engine.Request{TxID: "cg1", Type: engine.TxCreateGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", GearID: "gear_1", GearDefID: "sword"})
	p.Process(state, "k1", engine.Request{TxID: "eq1", Type: engine.TxEquipGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", GearID: "gear_1"})

	out := p.Process(state, "k1", engine.Request{TxID: "uq1", Type: engine.TxUnequipGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_2", GearID: "gear_1"})
	resp := mustDecode(t, out)
	assert.False(t, resp.Accepted)
	assert.Equal(t, engine.ErrCharacterMismatch, resp.ErrorCode)
}

func TestUnequipGear_ClearsEquipmentAndAllowsReequip(t *testing.T) {
	p, state := newHarness(t)
	createActor(t, p, state, "actor_1", "k1")
	createPlayer(t, p, state, "k1", "player_1")
	p.Process(state, "k1", engine.Request{TxID: "cc1", Type: engine.TxCreateCharacter, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", ClassID: "warrior"})
	p.Process(state, "k1", engine.Request{TxID: "cg1", Type: engine.TxCreateGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", GearID: "gear_1", GearDefID: "sword"})
	p.Process(state, "k1", engine.Request{TxID: "eq1", Type: engine.TxEquipGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", GearID: "gear_1"})

	out := p.Process(state, "k1", engine.Request{TxID: "uq1", Type: engine.TxUnequipGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", GearID: "gear_1"})
	require.True(t, mustDecode(t, out).Accepted)

	out2 := p.Process(state, "k1", engine.Request{TxID: "eq2", Type: engine.TxEquipGear, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", CharacterID: "char_1", GearID: "gear_1"})
	assert.True(t, mustDecode(t, out2).Accepted, "a freshly unequipped gear must be equippable again")
}

func TestIdempotencyCache_EvictionReexecutesOnReplay(t *testing.T) {
	p, state := newHarness(t)
	createActor(t, p, state, "actor_1", "k1")
	createPlayer(t, p, state, "k1", "player_1")

	first := engine.Request{TxID: "grant-0", Type: engine.TxGrantResources, GameInstanceID: state.InstanceID,
		PlayerID: "player_1", Resources: map[string]int64{"gold": 1}}
	p.Process(state, adminKey, first)

	// Cache bound is 8; push 8 more distinct txIds through to evict "grant-0".
	for i := 1; i <= 8; i++ {
		req := engine.Request{TxID: "grant-" + string(rune('0'+i)), Type: engine.TxGrantResources, GameInstanceID: state.InstanceID,
			PlayerID: "player_1", Resources: map[string]int64{"gold": 1}}
		p.Process(state, adminKey, req)
	}

	versionBeforeReplay := state.StateVersion
	p.Process(state, adminKey, first)
	assert.Greater(t, state.StateVersion, versionBeforeReplay, "an evicted txId must re-execute its side effect on replay")
}
