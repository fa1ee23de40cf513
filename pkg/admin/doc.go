// Package admin provides the REST API for managing stubs.
//
// Routes:
//
//	GET    /health
//	GET    /api/stubs
//	POST   /api/stubs
//	GET    /api/stubs/{id}
//	PUT    /api/stubs/{id}
//	DELETE /api/stubs/{id}
//	GET    /api/scenarios
//	PUT    /api/scenarios/{name}/state?state=X
//	POST   /api/scenarios/reset
//	GET    /api/requests
//	DELETE /api/requests
//	GET    /api/engine/rules
//	GET    /metrics              (when metrics are enabled)
//
// Errors are returned as {"error": code, "message": text}. Schema violations
// carry the failing fields under "details".
package admin
