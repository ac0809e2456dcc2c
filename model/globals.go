package model

// Globals contains global flags for the CLI.
type Globals struct {
	Debug   bool        `name:"debug" env:"FEEDREPORT_DEBUG" help:"Enable debug logging"`
	Version VersionFlag `name:"version" help:"Print version information and quit"`
}
