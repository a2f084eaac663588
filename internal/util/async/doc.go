// Package async runs independent tasks concurrently and gathers every
// failure.
package async
