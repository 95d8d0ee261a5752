// Package integration contains the Integration bounded context.
// This context pushes tenant business records to third-party systems
// (accounting platforms, tax e-invoicing gateways, payment gateways) and keeps
// the identity mapping and audit trail that make those pushes idempotent.
//
// Key concepts:
//   - IntegrationConfig: per-tenant connection settings with a typed ConfigData variant
//   - SyncJob: one run over a data category, driven through pending/running/completed/failed
//   - ExternalRecordMapping: local entity to external identifier correspondence
//   - AuditLogEntry: append-only trail of configuration changes, syncs and connection tests
//   - Adapter: port implemented once per external system, resolved through an AdapterRegistry
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
