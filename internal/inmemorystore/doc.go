// Package inmemorystore provides the thread-safe, in-memory memo store that
// analysis writes node results into.
//
// # Characteristics
//
//   - **Ephemeral:** Created fresh for each analysis, not persistent
//   - **Write-once results:** A node's result is stored exactly once, when
//     the node is final, and only read afterwards
//   - **Fine-grained:** Uses sync.Map, since every node's entry is
//     independent and the key space is known up front
package inmemorystore
