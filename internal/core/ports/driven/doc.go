// Package driven defines the outbound ports of the retrieval core: the
// embedding capability, the LLM completion capability, the vector index,
// text extraction, and prompt storage. Adapters under
// internal/adapters/driven implement them.
package driven
