// Package reembed re-embeds a tenant's stored chunks with a new or updated
// embedding model.
//
// Search quality degrades silently when the index holds vectors from a
// different model than queries are embedded with; after switching embedding
// models, run a reembedding pass to bring the stored vectors back in line.
// The package supports batch processing, progress reporting and retry with
// exponential backoff around the embedding provider.
package reembed
