// Package logging provides zerolog-backed structured logging with subsystem
// child loggers. Diagnostic output for a project is appended to
// .rapid/initialization.log and is never read back by the tool.
package logging
