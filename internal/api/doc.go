// Package api is the HTTP adapter: it decodes and validates requests,
// calls into the content and study services, and renders their results
// and errors as JSON. Error-to-status mapping lives in errors.go so
// handlers stay free of status code decisions.
package api
