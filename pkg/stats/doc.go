/*
Package stats computes a character's final, displayable stats from its
class base, the configured growth algorithm, every distinct equipped
gear piece, activated set bonuses, and configured clamps. Compute is a
pure read — it never mutates the Player or Character it's given.
*/
package stats
