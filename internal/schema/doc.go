// Package schema holds the prefab form model: typed fields grouped into
// sections, their validation rules, the read projections served to clients
// and the tabular layout used for answer exports. It performs no I/O.
package schema
