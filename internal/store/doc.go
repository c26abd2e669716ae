// Package store defines the persistence interfaces consumed by the pipeline:
// agents, generated content, and uploaded file records. Implementations live
// in internal/platform/postgres; the interfaces here keep the workflow layer
// free of database specifics and allow test doubles.
package store
