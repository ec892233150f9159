// Package diff parses unified diff text into per-file hunks with
// old/new line-number mappings.
//
// Parsing is strict: a hunk whose body does not match the line counts
// declared in its @@ header fails with a MalformedDiffError rather than
// proceeding, so review comments are never attributed to wrong lines.
// Renamed or binary files that carry no hunks parse to an empty hunk
// list and are simply not reviewed.
package diff
