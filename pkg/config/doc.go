/*
Package config validates a decoded GameConfig's internal reference
closure — every stat, slot, class, gearDef, and set named anywhere in
the config must resolve within that same config — and checks its
algorithm selections against the Algorithm Registry. Validate is called
once at startup per config; a GameConfig that passes is treated as
immutable for the life of the process.
*/
package config
