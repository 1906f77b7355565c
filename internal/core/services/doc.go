// Package services contains the core business logic, depending only on
// domain types and ports. Adapters are injected at startup.
package services
