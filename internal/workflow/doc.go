// Package workflow composes the content pipeline out of atomic, idempotent
// steps. Three durable workflows run through the task runner: brand knowledge
// (crawl a website, synthesize and chunk a brand document, upload the chunks,
// fan out distillation), knowledge distillation (chunk, distill, save to the
// vector store with a strict stage barrier), and content generation (fetch
// agent, improve the brief with retrieved knowledge and web search, generate,
// analyze, persist as draft).
//
// Workflows own no long-lived state; they coordinate collaborators that each
// own one category of side effect. Every step is safe to retry with the same
// payload, which is what lets the retry envelope and runner recovery re-run
// them without duplicating effects.
package workflow
