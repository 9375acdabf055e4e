// Package verify checks every root of a compiled unit.
//
// Methods are visited in name order and roots in body order. A failing
// root does not stop the run unless a failure budget is set: each failure
// is recorded with its error code and a rendered graph of the offending
// expression, logged, and checking moves on to the next root.
//
// When a store is supplied the run and one verdict per checked root are
// written to the verdict log. Verdicts carry a seq from the run's logical
// clock, so their order never depends on wall time.
package verify
