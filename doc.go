/*
Package lattice is a page-builder document engine: the model and algorithms
that let a user compose a tree of nested components (sections, containers,
content blocks) into a page, with live placement rules, undo/redo and
autosave.

The engine does not know how components render. It only knows their type tag,
to classify containers and content, and an opaque property bag.

# Architecture

The core packages are pure and free of I/O:

  - pkg/tree: structural operations (add, remove, duplicate, move, update, resize).
  - pkg/placement: which child types are legal under which parent.
  - pkg/geometry: grid snapping, alignment guides and readouts for gestures.
  - pkg/history: the past/present/future undo machine.
  - pkg/controls: device, orientation, locale, grid and preview state.

pkg/autosave talks to the outside world through the interfaces of pkg/ports.
Adapters (memory, file, redis, sqlite, loam, HTTP, MCP) live in pkg/adapters.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/lattice"
		"github.com/aretw0/lattice/pkg/adapters/memory"
		"github.com/aretw0/lattice/pkg/domain"
	)

	func main() {
		ctx := context.Background()
		store := memory.NewStore()

		ed, err := lattice.Open(ctx, "home", store)
		if err != nil {
			log.Fatal(err)
		}
		defer ed.Close(ctx)

		section, err := ed.AddComponent(domain.RootLocation(0), domain.TypeSection, nil)
		if err != nil {
			log.Fatal(err)
		}

		// Placement violations are returned as *placement.Error.
		if _, err := ed.AddComponent(domain.Location{ParentID: section}, domain.TypeSection, nil); err != nil {
			log.Println(err)
		}

		ed.Undo()
	}

Structural no-ops (an id that does not exist) are not errors: operations
return false and leave the document untouched.
*/
package lattice
