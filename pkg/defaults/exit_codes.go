package defaults

// Exit codes for the CLI.
const (
	ExitSuccess       = 0 // Clean exit, nothing found
	ExitFindings      = 1 // Scan completed and reported findings
	ExitUserError     = 2 // Invalid arguments or configuration
	ExitNetworkError  = 3 // Target wholly unreachable
	ExitInternalError = 4 // Unexpected internal error
)
