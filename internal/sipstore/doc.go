// Package sipstore persists dossiers, SIPs, and grid rows in a local SQLite
// database. The store owns the schema, enforces the SIP status lifecycle, and
// keeps the saved/unsaved flag that guards packaging against unsaved edits.
package sipstore
