// Package planner turns free-form chat messages into a structured on-chain
// intent. Greetings and help requests are answered from a fixed lexicon
// without a model round trip; everything else goes through the external
// completion provider with a strict degrade-to-help policy, followed by
// deterministic local repair of missing-but-inferable fields.
package planner
