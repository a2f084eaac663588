// Package retry re-runs operations that fail transiently, such as dialing a
// host that is still booting, with exponentially growing delays.
//
// Errors wrapped with [Fatal] stop the loop immediately.
package retry
