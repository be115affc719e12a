// Package runner provides common types to report the outcome of a traced
// program after it has been resumed and reaped, including Result, Size and
// Status.
//
// # Status
//
// Status defines the program running result status including
//
//	Normal
//	Program Error
//	    Resource Limit Exceeded (Time / Output)
//	    Unauthorized Access (Disallowed Syscall)
//	    Runtime Error (Signalled / Nonzero Exit Status)
//	Program Runner Error
//
// # Size
//
// Size defines size in bytes, underlying type is uint64 so it
// is effective to store up to EiB of size
//
// # Result
//
// Result defines program running result including
// Status, ExitStatus, Detailed Error, Time, Memory,
// SetUpTime and RunningTime (in real clock)
package runner
