// Package llm contains adapters for invoking large language model completion
// providers. It abstracts away provider-specific APIs behind a minimal
// Complete interface; the planner layer owns prompt construction and the
// parsing of structured replies, so providers stay interchangeable.
package llm
