// Package api provides the HTTP surface of the service: the workflow trigger
// endpoints and the health check. Handlers validate request bodies, emit
// workflow-request events and return 202; they never execute workflow logic
// themselves.
package api
