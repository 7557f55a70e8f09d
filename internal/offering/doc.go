// Package offering holds the read-only registry of tradable asset
// descriptors. The registry is built once at startup from a static YAML
// catalogue and is safe for unlimited concurrent reads. It provides direct
// lookup by 32-byte identifier and a fixed-priority free-text resolver used
// by the intent planner.
package offering
