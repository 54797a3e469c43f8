// Package services defines shared utilities consumed by the SIP workflow
// operations and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp SIP IDs, operation names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent SIP statuses (rejected vs retryable).
//
// Use these helpers when wiring new operations so error handling and
// observability stay uniform across the workflow.
package services
