/*
Package types defines the core data structures shared across the game
state engine: GameConfig (the immutable ruleset) and the per-instance
entities a transaction mutates — Actor, Player, Character, and Gear.

These types carry no behavior beyond small invariant helpers
(OwnsPlayer, IsEquipped); validation, mutation, and computation live in
the sibling packages (config, engine, stats, migrate) that consume them.
*/
package types
