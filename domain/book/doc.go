// Package book maintains a price-ordered, order-aggregated view of one
// exchange's limit order book under a stream of create/change/delete
// events. Each side is a slice of price levels kept sorted at all
// times; lookups and inserts binary-search with the side's comparator.
//
// The package holds no locks itself. Concurrent access goes through
// service.BookService, which serializes Apply and Snapshot.
package book
