/*
Package tree implements the structural operations over a page document.

Every function is pure: it never mutates its input and always returns a fresh
root slice. Only the spine from the root to the touched node is rebuilt;
sibling subtrees keep their pointer identity, which keeps history snapshots
cheap.

Operations addressing a node or parent that does not exist return the document
unchanged (as a new slice holding the same nodes). Callers detect the no-op
with Changed rather than by checking an error.
*/
package tree
