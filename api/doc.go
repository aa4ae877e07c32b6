// Package api provides the gateway's wire-level DTOs and the error
// envelope shared by every HTTP handler.
//
// # API Overview
//
// The gateway exposes a single authenticated HTTP surface (§6) in front of
// several upstream provider families:
//   - POST /v1/chat/completions — OpenAI-compatible chat completions,
//     streaming and non-streaming, across every configured LLM provider
//   - GET /v1/models, /v1/models/:id — the static model catalog
//   - POST /web-search, /image-search — metered search adapters
//   - GET /health — unauthenticated liveness
//
// # Authentication
//
// Every protected route requires:
//
//	Authorization: Bearer <token>
//
// # Error envelope
//
// Every non-streaming error response is JSON shaped as:
//
//	{"error": true, "message": "...", "status": 4xx|5xx}
//
// matching the ErrorEnvelope type below (§6.6).
package api
