// Package analysis evaluates the target graph bottom-up. Every node is
// visited exactly once, after all of its dependencies are final, with
// independent subtrees visited in parallel. The per-node results are then
// assembled into one action graph.
package analysis
