// Package dag holds the target dependency graph. It is built once from the
// configuration model, validated for cycles, and then only read: analysis
// walks it bottom-up and the plan and build commands restrict it to the
// transitive closure of the requested targets.
package dag
