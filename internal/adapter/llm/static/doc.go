// Package static provides an offline evaluator that returns a canned
// finding. It exercises the full pipeline without live API calls, both
// in tests and for dry runs.
package static
