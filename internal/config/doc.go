// Package config provides centralized configuration management for the
// IntentChain runtime. The whole configuration is parsed once at startup into
// a single typed struct with documented defaults; contract addresses and
// driver names are validated before any component is constructed, so the
// request path never needs to guess at configuration shapes.
package config
