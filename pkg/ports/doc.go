/*
Package ports defines the driven ports (interfaces) for the lattice editor.

These interfaces decouple the document engine from external implementations,
allowing the editor to work with various storage backends, id sources and
template palettes.

# Key Interfaces

  - DocumentStore: persists and loads the working copy of a page.
  - Publisher: persists the published snapshot of a page.
  - IDGenerator: mints fresh node ids for palette adds and duplication.
  - TemplateLibrary: resolves palette templates (e.g., from Loam or Memory).
  - DistributedLocker: provides distributed locking for concurrent page access.
*/
package ports
