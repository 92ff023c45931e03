// Package catalog is the in-memory clip registry.
//
// A [Catalog] keeps clip descriptors keyed by id plus three derived indices (channel, category,
// tempo). Only tempo-bound clips (tempo > 0) appear in the tempo index. The indices are updated
// in the same call as the store, and [Catalog.CheckIndices] recomputes them from scratch to
// confirm nothing drifted.
package catalog
