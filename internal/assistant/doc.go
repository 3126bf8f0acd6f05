// Package assistant holds the static table of assistant profiles: where each
// AI coding assistant keeps its agents, commands or prompts, and its single
// instructions file. The canonical .rapid profile is part of the table but is
// never a synchronization target.
package assistant
