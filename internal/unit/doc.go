// Package unit reads checker input: one syntax tree per file, stored as JSON
// (.bck.json) or msgpack (.bck.mp), with types already resolved by the front
// end and written in the textual syntax of package types.
//
// Decoding is two-step. Parse reads and validates the document; Document.Unit
// converts it into ast nodes once the caller knows which FileID the spans
// belong to.
package unit
