package lattice_test

import (
	"fmt"
	"log"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
	"github.com/aretw0/lattice/pkg/ids"
	"github.com/aretw0/lattice/pkg/tree"
)

// Example_builder builds the starting document with the dsl package instead
// of node literals.
func Example_builder() {
	b := dsl.New().SectionsOnly()
	hero := b.Add("hero", domain.TypeSection)
	cards := hero.Add("cards", domain.TypeGrid).Prop("columns", 3)
	cards.Add("card-1", "Card").Localized("title", "en", "First")

	doc, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	ed, err := lattice.New("home", doc,
		lattice.WithSectionsOnly(true),
		lattice.WithIDGenerator(ids.NewSequence("c")),
	)
	if err != nil {
		log.Fatal(err)
	}

	ed.Duplicate("card-1")
	fmt.Println(tree.IDs(ed.Document()))

	// Output:
	// [hero cards card-1 c1]
}
