// Package confluence implements the DocumentSource port against the
// Confluence REST API.
//
// Pages are fetched with the storage-format body, version info and labels
// expanded in a single request, paginated 50 at a time. Label filtering is
// done client-side so one request shape serves every query. A token bucket
// throttles requests so large space crawls stay inside Confluence's rate
// limits.
package confluence
