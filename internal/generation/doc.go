// Package generation defines the boundary between the pipeline and external
// LLM services: plain text generation, schema-constrained object generation,
// and text embedding. The interfaces here keep the workflow layer vendor-free;
// internal/platform/gemini provides the production implementation.
package generation
