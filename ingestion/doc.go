// Package ingestion turns raw document text into embedded, searchable chunks.
//
// The entry point is Pipeline, which persists a document row, splits the
// content with a sliding-window Chunker, and embeds and stores the chunks in
// batches on a background worker pool. Progress is exposed through the
// document's status and chunk count rather than a job queue; callers poll.
package ingestion
