// Package exitcodes defines the standard exit codes used by kizu.
package exitcodes

// Exit code constants used by kizu
//
// * Success (0): every spec file reported tests and every test passed
// * TestFailure (1): a test failed, a spec file reported no tests, or no test ran
// * RuntimeErr (2): a worker could not be started, a worker failed, or the configuration is invalid
const (
	Success     = 0 // All tests pass
	TestFailure = 1 // Test failures
	RuntimeErr  = 2 // Runtime errors
)
