// Package session wires the indexing components together and owns their
// shared state: one parse cache, one parser registry, one builder and
// updater, and the current ProjectIndex. It is the surface a host embeds.
//
// Builds come in two flavors. BuildIndex runs synchronously on the caller's
// goroutine. BuildIndexAsync runs in the background with fire-and-forget
// progress updates and cooperative cancellation; only one async build may be
// in flight at a time, and starting a new one first cancels its predecessor,
// waiting at most the configured cancel timeout before abandoning it.
//
// Module internals can be indexed too, by composing the pieces: a host
// resolves each module block's source with modres.Resolver, lists the
// resolved directory with modres.FindModuleFiles, and parses those files
// through the builder with Options.ModulePath set to the call's name so
// the child blocks carry their scope. The CLI's one-shot report stops at
// resolution; this composition is the embedding surface for going deeper.
package session
