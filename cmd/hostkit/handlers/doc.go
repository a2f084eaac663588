// Package handlers implements the business logic for hostkit CLI commands.
//
// Each handler receives an Env holding the executor, its context and the
// loaded configuration, so tests can substitute fake runners. Handlers
// print their results to Env.Out.
package handlers
