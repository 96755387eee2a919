// Package unsafehelpers centralises the module's few unavoidable uses of the
// `unsafe` standard-library package so the rest of dbsp stays clean and easy
// to audit. Every helper documents its pre-/post-conditions.
//
// ⚠️  DISCLAIMER  These helpers deliberately break the Go memory-safety model
// for zero-allocation conversions. Use ONLY inside this repository; they are
// not part of the public API and may change without notice.
//
// © 2025 dbsp authors. MIT License.
package unsafehelpers

import "unsafe"

/* -------------------------------------------------------------------------
   1. Zero-copy string/[]byte conversions
   ------------------------------------------------------------------------- */

// BytesToString converts a mutable byte slice to an immutable string without
// allocating. The caller must guarantee that b is never modified for the
// lifetime of the returned string.
//
// Used by internal/tracefmt to split CSV trace lines without per-field
// allocation on the hot ingest path.
func BytesToString(b []byte) string {
    if len(b) == 0 {
        return ""
    }
    return unsafe.String(&b[0], len(b))
}
