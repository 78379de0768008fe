// Package pipeline fans FASTQ reads out to scan/extract workers and
// accumulates tag-pair counts into a shared sharded table.
//
// Final counts are independent of worker count and scheduling: increments
// commute and representative selection is first-writer-wins per key.
package pipeline
