/*
Package migrate reconciles a restored GameState against the GameConfig
that is about to govern it: slots removed from the config are dropped
from character.equipped, gear whose gearDef vanished is preserved in
inventory but unequipped, equipped patterns that no longer match any of
a gearDef's equipPatterns are cleared, orphaned classes are flagged
(not mutated), and the equip bidirectional invariant is re-enforced in
both directions. Run never deletes a character or gear instance; it
only breaks references that no longer resolve.
*/
package migrate
