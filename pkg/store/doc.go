// Package store loads policy and park records from a data directory and
// answers queries over the loaded collections.
//
// # Layout
//
// The data root contains:
//
//	data/
//	  policies/          required
//	    <city>/          one directory per city
//	      <id>.yaml
//	  parks/             optional
//	    <id>.yaml
//
// # Loading
//
// A [Loader] walks the tree and decodes every .yaml/.yml file. A file that
// cannot be read, is not a YAML mapping, or has no id is skipped with a
// warning; the rest of the load continues. A missing policies directory is
// fatal; a missing parks directory yields no parks.
//
//	l := store.NewLoader("data", logger)
//	snap, err := l.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	p, ok := snap.PolicyByID("sz-nanshan-opc-2024")
//
// Nothing is cached. Each call reads the tree again and returns a new
// [Snapshot]; derived views are always recomputed from it. Snapshots are
// never mutated after Load returns and may be shared between goroutines.
//
// # Ordering
//
// Policies are ordered by publish date, newest first, with ties broken by id
// so that repeated loads of the same tree are deep-equal. Parks keep file
// name order.
package store
