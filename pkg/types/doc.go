// Package types defines the domain entities, configuration, snapshot format,
// sync operation record, and standard errors shared by every rostervault
// component. All entities live inside a principal's partition and reference
// each other by identifier only.
package types
