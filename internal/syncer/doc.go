// Package syncer reconciles the canonical .rapid directory with assistant
// directories in either direction.
//
// Forward sync copies canonical content out to each assistant; consolidation
// copies assistant edits back. Every file passes through the same decision:
// copy when the target is missing, when forced, or when the source is
// strictly newer, and skip otherwise. Instruction files add a content
// equality check, and consolidation refuses to pick a winner when two
// assistants both edited their instruction files since the last sync.
package syncer
