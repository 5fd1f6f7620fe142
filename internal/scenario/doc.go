// Package scenario describes a single scheduled journey execution and loads it
// from disk.
//
// # File Formats
//
// A scenario can be written in YAML, TOML or CUE. The extension picks the
// decoder. Every format is checked against the same embedded CUE schema
// (schema.cue), and unknown fields are rejected.
//
//	at: "00:00:00"
//	journey: sample.Passing
//	after_test: STAY_IN_APP
//	extras:
//	  - key: account
//	    value: test-user
//
// The TOML equivalent:
//
//	at = "00:00:00"
//	journey = "sample.Passing"
//	after_test = "EXIT"
//
//	[[extras]]
//	key = "account"
//	value = "test-user"
//
// after_test may be omitted, in which case STAY_IN_APP applies. The at field is
// display only: a scenario's slot length is given to the runner separately.
package scenario
