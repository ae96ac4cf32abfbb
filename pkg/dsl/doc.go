/*
Package dsl provides a Go DSL for programmatically constructing lattice documents.

It allows developers to define page trees using a fluent builder instead of
hand-writing nested domain.Node literals or JSON fixtures. Build checks the
result against the placement rules, so a document that comes out of the
builder can always be opened and edited.

Example usage:

	b := dsl.New()

	hero := b.Add("hero", domain.TypeSection).Prop("padding", "48px")
	hero.Add("title", "Heading").
		Localized("text", "en", "Welcome").
		Localized("text", "pt", "Bem-vindo")

	cards := hero.Add("cards", domain.TypeGrid).Prop("columns", 3)
	cards.Add("card-1", "Card")
	cards.Add("card-2", "Card")

	doc, err := b.Build()
	// ... pass doc to lattice.New(...)
*/
package dsl
