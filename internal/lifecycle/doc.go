// Package lifecycle watches externally managed containers through the
// container runtime CLI.
//
// All state is obtained by polling: the Monitor issues inspect commands via
// the executor and interprets the printed status. Results are advisory. A
// container may change state right after a check.
package lifecycle
