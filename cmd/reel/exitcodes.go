package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable or out-of-range config, bad flag values)
	ExitDataError   = 3 // Data error (missing or malformed dataset, unknown catalog entry)
)
