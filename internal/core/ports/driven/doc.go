// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - VectorCollection: Embedded document storage with similarity search
//   - EmbeddingService: Generates vector embeddings for titles, chunks and queries
//   - SessionStore: Conversation history per session
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Tool-use language model. Without it, questions cannot be answered
//     but catalog and search commands still work.
//   - PromptStore: Prompt overrides. Without it, built-in prompts are used.
//   - CourseParser: Course document parsing. Only needed for ingestion.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or parser package
package driven
