// Package notes turns freeform session notes into pending task descriptors.
//
// The parser recognizes a small fixed token grammar on lines that start
// with the command marker "/" (optionally as "/task "). Everything else is
// prose and ignored. Parsing is pure, side-effect free, and never fails:
// malformed tokens fall back to documented defaults, and a line whose title
// is empty after token stripping is silently dropped. The host re-runs the
// parser over the whole buffer on every edit to refresh the task preview,
// so it must stay cheap.
package notes
