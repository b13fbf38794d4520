// Package auditlog persists append-only audit records for external command
// invocations. Every command executed by searchfix leaves exactly one record in
// the audit log, success or failure, so a partial run still leaves a durable
// trail for post-hoc diagnosis.
package auditlog
