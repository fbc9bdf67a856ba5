// Package services holds the course assistant's core logic: the vector
// store over the catalog and content collections, the tools the model
// calls, the response generator's tool loop, the RAG service, ingestion
// and settings.
//
// Services depend only on domain types and driven ports.
package services
