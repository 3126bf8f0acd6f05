// Package config manages user settings stored in .rapidrc.yaml files. A global
// file in $HOME and a project file in the project root are layered over
// built-in defaults, and RAPID_* environment variables override both.
package config
