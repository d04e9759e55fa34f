// Package config loads undocore settings.
//
// Settings come from three layers, later layers winning: built-in
// defaults, an optional TOML file and UNDOCORE_ environment variables.
//
//	[logging]
//	level = "info"
//
//	[undo]
//	init_types = ["@@INIT", "@@redux/INIT"]
//	purge_on   = ["LOCATION_CHANGE", "USER_SET_USER"]
//	undoable   = []
//
// Config.EnhancerConfig turns the undo section into an undo.EnhancerConfig.
package config
