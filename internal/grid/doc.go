// Package grid holds the in-memory record set behind a SIP grid view and the
// validator that enforces its business rules.
//
// A RecordSet is built once from a folder scan, a spreadsheet import, or the
// store, then mutated cell by cell. Every rule violation becomes a cell
// annotation rather than an error return, so a view can show all problems at
// once; only structural misuse (editing a cell that does not exist) is
// reported to the caller. Date edits propagate between a dossier row and its
// stuk rows exactly one level deep, which keeps the work per edit bounded.
//
// The package has no storage or rendering concerns; callers persist the set
// through sipstore and render annotations however they like.
package grid
