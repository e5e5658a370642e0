// Package models contains data types and constants for the riskchat client.
package models

// Endpoints for the chat backend
const (
	EndpointDefault = "http://localhost:8000/chat"
)

// Artifact markers wrapping an embedded payload inside a reply
const (
	ArtifactStartMarker = "<<<ARTIFACT_START>>>"
	ArtifactEndMarker   = "<<<ARTIFACT_END>>>"
)

// Backend names accepted in configuration
const (
	BackendHTTP  = "http"
	BackendLocal = "local"
)

// AvailableBackends returns the backend names that can be configured
func AvailableBackends() []string {
	return []string{BackendHTTP, BackendLocal}
}

// DefaultHeaders returns the default headers for chat requests
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "riskchat/0.1",
	}
}
