// Package analysis runs the lifetime inferencer and the ownership checker over
// functions. Every function gets its own Session; nothing is shared between
// sessions, so whole units are checked in parallel.
package analysis
