// Package importer reconciles a batch of parsed shopping items against a
// store's catalog and adds them to a shopping list.
//
// For each parsed item the reconciler reuses the catalog item with the same
// normalized name, or creates one placed where the categorizer suggests. A
// bad item is reported in the Result and never aborts the batch.
//
// # Concurrency
//
// Categorization of names missing from the catalog runs concurrently, bounded
// by the configured limit. Every write happens afterwards on the calling
// goroutine in input order, so the store keeps a single writer.
package importer
