// Package lineage resolves persons in a genealogy fact graph and computes
// which source files each person depends on.
//
// Facts are GEDCOM X style triples loaded from Turtle files into a SQLite
// store. Every fact remembers the file it came from, so files can be
// reloaded, skipped when unchanged, and forgotten when deleted.
//
// # Usage
//
//	e, err := lineage.New(".lineage/lineage.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	_, err = e.LoadSources(ctx, "family")
//
//	r := e.Resolver()
//	id, err := r.FindPerson(ctx, "people/john")
//	var notes lineage.NoteList
//	p, err := r.ResolvePerson(ctx, id, &notes)
//
// # Resolution
//
// A [Resolver] works over any [Graph]. Names come from the preferred name,
// then the birth name, then any name. Parents are matched by gender; more
// than one candidate yields no parent and a MULTIPLE_FATHERS or
// MULTIPLE_MOTHERS note. Partners come from couple relationships in either
// direction, or are inferred from a shared child. Children are grouped by
// their other parent.
//
// # Diagnostics
//
// Anomalies that do not stop resolution are recorded as [Note] values in a
// [NoteList]. Each note carries typed variables ([Integer], [String],
// [ResourceRef], [Sequence]) and renders to JSON.
//
// # Dependencies
//
// [Engine.Dependencies] maps each person to the files describing them or
// any person they share a relationship with. Relatives of relatives are not
// followed.
//
// # Checks
//
// [Engine.Check] runs the Risor scripts under scripts/checks against every
// resolved person. Scripts see the globals persons(), describe(uri),
// note(type, id, text, vars), resource(uri) and log.
package lineage
