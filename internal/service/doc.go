// Package service contains the application-specific use cases. It sits
// between the HTTP layer and the domain, coordinating stores and the
// generation orchestrator to fulfill content import and study session
// features.
//
// Error handling follows a small set of rules:
//
//  1. Service methods return sentinel errors for expected conditions so
//     callers can check them with errors.Is.
//  2. Unexpected errors are wrapped in service-specific error types that
//     record the failing operation.
//  3. The API layer maps service errors to HTTP status codes; services
//     never reference HTTP concepts themselves.
package service
