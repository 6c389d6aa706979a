// Package catalog is the galaxy-catalog collaborator of the reconstruction
// chain.
//
// Responsibilities:
//   - Immutable column table (Catalog) addressable by name, sliceable by a
//     boolean mask and extendable with new columns. Every derivation returns
//     a new Catalog; no method mutates its receiver.
//   - Selection cuts applied before projection.
//   - Readers for parquet files and sqlite tables, and a parquet writer used
//     by tooling and tests.
//
// Key types: Catalog, Cut, Format.
//
// Dependency rule: catalog depends only on massmap (errors) and security.
package catalog
