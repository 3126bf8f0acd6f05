// Package initializer installs the template tree into a project for one
// language and a set of assistants.
//
// Every write is recorded in a journal. When any copy fails the journal is
// replayed in reverse so the project is left as it was before the run.
package initializer
