// Package importer implements transactional bulk import and export of
// translations. A batch loads the project's key index once, applies per-key
// conflict resolution (skip, overwrite, merge), collects expected per-item
// issues as soft errors, and commits or rolls back as a unit. Dry runs reuse
// the real write path inside a rolled-back transaction so their counts match
// a subsequent commit. Export publishes only approved values, grouped by
// namespace with a metadata side map.
package importer
