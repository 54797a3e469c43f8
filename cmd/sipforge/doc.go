// Package main hosts the sipforge CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the whole submission workflow: dossier
// registration, SIP creation, grid building and validation, series binding,
// package assembly, and the FTPS handover to the e-depot. It centralizes
// configuration resolution, workspace locking, and structured logging setup
// so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
