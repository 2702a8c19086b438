// Package service coordinates one exchange pipeline: BookService is
// the shared, mutex-guarded book state written by the ingestion feed
// and read by the Summarizer, which samples it on a fixed interval
// and fans summaries out to subscribers.
package service
