// Package platform provides the REST client for the remote job-execution
// platform.
//
// This package is internal to NeuroX and handles every direct interaction
// with the platform API: listing active jobs, submitting new jobs from raw
// parameter strings, and killing jobs.
//
// The main components are:
//
//   - [Client]: rate-limited HTTP client with live-updatable credentials
//   - [JobDescription]: a job as reported by the platform
//   - [AuthError], [ValidationError]: typed failures callers match with
//     errors.As (or the [IsAuth] / [IsValidation] helpers)
//
// Transport-level failures are returned as plain wrapped errors; callers that
// need to distinguish them from API-level failures check the typed errors
// first and treat everything else as transient.
package platform
