// Package api exposes the HTTP surface of the assistant: the synchronous
// /chat endpoint, the /chat/stream event-stream variant, the /plans history
// listing, and the /health probe. Request validation failures surface as
// structured 400 responses; planner and builder degradation never does.
package api
