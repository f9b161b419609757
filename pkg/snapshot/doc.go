/*
Package snapshot persists and restores GameState as one JSON file per
instance. Store.Flush writes via a temp-file-then-rename so a crash
mid-write never corrupts the file on disk; Store.LoadAll reads every
snapshot in a directory on startup, leaving migration (legacy-field
tolerance, reconciliation) to pkg/migrate. Worker drives Flush on a
fixed interval for whichever instances have changed since they were
last persisted; an interval of 0 disables the ticker and leaves
flushing to an explicit shutdown call.
*/
package snapshot
