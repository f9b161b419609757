package engine

import (
	"fmt"
	"strings"

	"github.com/cuemby/statekeep/pkg/types"
)

// levelUpCharacter raises a character's level by req.Levels (default
// 1), debiting the summed per-level cost from the player's and
// character's wallets. levelUpGear is the same shape against a Gear
// and the gear-cost algorithm.
func (p *Processor) levelUpCharacter(state *types.GameState, req Request) Response {
	player, ok := state.Players[req.PlayerID]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrPlayerNotFound,
			fmt.Sprintf("player %q not found", req.PlayerID))
	}
	character, ok := player.Characters[req.CharacterID]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrCharacterNotFound,
			fmt.Sprintf("character %q not found", req.CharacterID))
	}

	target, code, msg := p.nextLevel(character.Level, req)
	if code != "" {
		return reject(req.TxID, state.StateVersion, code, msg)
	}

	alg, ok := p.registry.LevelCost(p.config.Algorithms.LevelCostCharacter.AlgorithmID)
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrInvalidConfigReference,
			fmt.Sprintf("levelCostCharacter algorithm %q is not registered", p.config.Algorithms.LevelCostCharacter.AlgorithmID))
	}
	cost, err := sumCostRange(alg, character.Level+1, target, p.config.Algorithms.LevelCostCharacter.Parameters)
	if err != nil {
		return reject(req.TxID, state.StateVersion, ErrInvalidConfigReference, err.Error())
	}

	playerCost, characterCost := splitCostByScope(cost)
	if code, msg := checkFunds(player.Resources, playerCost); code != "" {
		return reject(req.TxID, state.StateVersion, code, msg)
	}
	if code, msg := checkFunds(character.Resources, characterCost); code != "" {
		return reject(req.TxID, state.StateVersion, code, msg)
	}

	debit(player.Resources, playerCost)
	debit(character.Resources, characterCost)
	character.Level = target

	state.StateVersion++
	return accept(req.TxID, state.StateVersion)
}

func (p *Processor) levelUpGear(state *types.GameState, req Request) Response {
	player, ok := state.Players[req.PlayerID]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrPlayerNotFound,
			fmt.Sprintf("player %q not found", req.PlayerID))
	}
	gear, ok := player.Gear[req.GearID]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrGearNotFound,
			fmt.Sprintf("gear %q not found", req.GearID))
	}

	target, code, msg := p.nextLevel(gear.Level, req)
	if code != "" {
		return reject(req.TxID, state.StateVersion, code, msg)
	}

	var character *types.Character
	if gear.IsEquipped() {
		character = player.Characters[gear.EquippedBy]
	}

	alg, ok := p.registry.LevelCost(p.config.Algorithms.LevelCostGear.AlgorithmID)
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrInvalidConfigReference,
			fmt.Sprintf("levelCostGear algorithm %q is not registered", p.config.Algorithms.LevelCostGear.AlgorithmID))
	}
	cost, err := sumCostRange(alg, gear.Level+1, target, p.config.Algorithms.LevelCostGear.Parameters)
	if err != nil {
		return reject(req.TxID, state.StateVersion, ErrInvalidConfigReference, err.Error())
	}

	playerCost, characterCost := splitCostByScope(cost)
	if code, msg := checkFunds(player.Resources, playerCost); code != "" {
		return reject(req.TxID, state.StateVersion, code, msg)
	}
	if len(characterCost) > 0 && character == nil {
		return reject(req.TxID, state.StateVersion, ErrInsufficientResources,
			"cost references character-scoped resources but gear is not equipped to a character")
	}
	if character != nil {
		if code, msg := checkFunds(character.Resources, characterCost); code != "" {
			return reject(req.TxID, state.StateVersion, code, msg)
		}
	}

	debit(player.Resources, playerCost)
	if character != nil {
		debit(character.Resources, characterCost)
	}
	gear.Level = target

	state.StateVersion++
	return accept(req.TxID, state.StateVersion)
}

// nextLevel resolves the target level from req.Levels (default 1) and
// rejects MAX_LEVEL_REACHED if it would exceed the config's maxLevel.
func (p *Processor) nextLevel(current int, req Request) (int, ErrorCode, string) {
	delta := 1
	if req.Levels != nil {
		delta = *req.Levels
	}
	target := current + delta
	if target > p.config.MaxLevel {
		return 0, ErrMaxLevelReached, fmt.Sprintf("target level %d exceeds maxLevel %d", target, p.config.MaxLevel)
	}
	return target, "", ""
}

// sumCostRange sums CostForLevel key-wise for every target level from
// from through to inclusive — "totals over a range are the sum of
// per-target-level costs, key-wise."
func sumCostRange(alg interface {
	CostForLevel(int, map[string]interface{}) (map[string]float64, error)
}, from, to int, params map[string]interface{}) (map[string]float64, error) {
	total := make(map[string]float64)
	for lvl := from; lvl <= to; lvl++ {
		cost, err := alg.CostForLevel(lvl, params)
		if err != nil {
			return nil, err
		}
		for k, v := range cost {
			total[k] += v
		}
	}
	return total, nil
}

// splitCostByScope partitions a key-wise cost map (keys already
// normalized to "player.x" / "character.x" form) into the player and
// character wallets it must debit from.
func splitCostByScope(cost map[string]float64) (player, character map[string]int64) {
	player = make(map[string]int64)
	character = make(map[string]int64)
	for key, amount := range cost {
		rounded := int64(amount + 0.5)
		switch {
		case strings.HasPrefix(key, "character."):
			character[strings.TrimPrefix(key, "character.")] = rounded
		default:
			player[strings.TrimPrefix(key, "player.")] = rounded
		}
	}
	return player, character
}

func checkFunds(wallet map[string]int64, cost map[string]int64) (ErrorCode, string) {
	for key, amount := range cost {
		if wallet[key] < amount {
			return ErrInsufficientResources, fmt.Sprintf("insufficient %q: have %d, need %d", key, wallet[key], amount)
		}
	}
	return "", ""
}

func debit(wallet map[string]int64, cost map[string]int64) {
	for key, amount := range cost {
		wallet[key] -= amount
	}
}
