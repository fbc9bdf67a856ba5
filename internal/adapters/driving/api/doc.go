// Package api serves the course question-answering service over HTTP.
//
// Routes:
//
//	GET    /                         service status
//	POST   /api/query                answer a question within a session
//	GET    /api/courses              catalog statistics
//	DELETE /api/session/{sessionID}  forget a session
//	GET    /metrics                  Prometheus metrics
//
// Every other path falls through to the optional static directory.
package api
