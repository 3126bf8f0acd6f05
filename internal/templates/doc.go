// Package templates owns the language registry and the template tree that
// rapid installs: agent definitions per language, command and prompt
// templates, and one instruction document per language. The tree ships
// embedded in the binary and can be replaced by an on-disk directory with the
// same layout. Its catalog.yaml is validated against an embedded JSON Schema.
package templates
