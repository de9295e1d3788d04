// Package overlay applies a tree of replacement files onto a live installation.
//
// The overlay is file-for-file: every regular file under the source root is
// mapped to the same relative path under the target root. A patch only ever
// replaces a file that already exists; it never creates one.
//
// Key components:
//   - Walker: enumerates patch files under the source root in a stable order
//   - Applier: maps one patch file to its destination and overwrites it
//   - Counter: aggregates applied/failed/missing outcomes for a run
package overlay
