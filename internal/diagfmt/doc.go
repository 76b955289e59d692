// Package diagfmt renders diagnostic bags for terminals and tools: a
// colored pretty form with source excerpts, a one-line short form and JSON.
package diagfmt
