/*
Package domain contains the core data model of the page-builder engine.

It defines the component tree, the closed vocabulary of container types, the
lifecycle events emitted by the editor and the document diff used for live
updates. This package is kept pure and free of external dependencies like
I/O or persistence.

# Key Entities

  - Node: a component with an id, a type tag, an opaque property bag and, for
    containers, an ordered list of children.
  - Document: the ordered forest of root-level components of a page.
  - Location: an insertion or removal point (parent id + index).
  - ComponentType: the type tag, classified by a lookup table into content,
    container, layout root and section kinds.
*/
package domain
