// Package preflight verifies the environment before packaging and upload:
// directory access, free disk space, series registry reachability, and the
// e-depot endpoint. Checks return structured results for table rendering
// rather than failing fast.
package preflight
