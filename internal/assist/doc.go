// Package assist orchestrates a single chat request end to end: it runs the
// planner, feeds the resulting intent through the transaction builder, and
// assembles the immutable plan object returned to the caller, backfilling
// documentation and support metadata from configuration when the intent did
// not supply them.
package assist
