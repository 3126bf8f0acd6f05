// Package status inspects a project's canonical directory and reports what
// is installed, which assistants are configured, and anything that needs
// attention.
package status
