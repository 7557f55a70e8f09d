// Package txbuilder deterministically encodes unsigned EVM contract calls
// for validated intents: correct units, configured target addresses, and the
// required ordering between dependent calls such as the allowance approval
// that precedes a purchase. It never signs, simulates, or broadcasts.
package txbuilder
