// Package graph provides a concurrency-safe dependency graph over block
// addresses, built from the reference edges of a ProjectIndex. Consumers use
// it to answer "what does this block depend on", "who depends on this block",
// and "does the configuration contain a reference cycle".
package graph
