package domain

// ComponentType is the type tag of a component.
// The container vocabulary is closed; every other tag is content.
type ComponentType string

// Container types.
const (
	TypeSection   ComponentType = "Section"
	TypeCanvas    ComponentType = "Canvas" // freeform canvas, also a layout root
	TypeColumns   ComponentType = "Columns"
	TypeFlex      ComponentType = "Flex"
	TypeGrid      ComponentType = "Grid"
	TypeCarousel  ComponentType = "Carousel"
	TypeTabs      ComponentType = "Tabs"
	TypeAccordion ComponentType = "Accordion"
	TypeDataList  ComponentType = "DataList"
	TypeDataTable ComponentType = "DataTable"
)

// Pseudo types used by placement rules.
const (
	// TypeRoot stands for the document root when checking placement.
	TypeRoot ComponentType = "ROOT"
	// TypeContent is the sentinel meaning "any non-container type".
	TypeContent ComponentType = "content"
)

// Kind classifies a component type.
type Kind int

const (
	KindContent Kind = iota
	KindContainer
	KindLayoutRoot
	KindSection
	KindRoot
)

func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindContainer:
		return "container"
	case KindLayoutRoot:
		return "layout-root"
	case KindSection:
		return "section"
	case KindRoot:
		return "root"
	default:
		return "unknown"
	}
}

var kinds = map[ComponentType]Kind{
	TypeRoot:      KindRoot,
	TypeSection:   KindSection,
	TypeCanvas:    KindLayoutRoot,
	TypeColumns:   KindContainer,
	TypeFlex:      KindContainer,
	TypeGrid:      KindContainer,
	TypeCarousel:  KindContainer,
	TypeTabs:      KindContainer,
	TypeAccordion: KindContainer,
	TypeDataList:  KindContainer,
	TypeDataTable: KindContainer,
}

// ContainerTypes lists the closed container vocabulary in declaration order.
var ContainerTypes = []ComponentType{
	TypeSection,
	TypeCanvas,
	TypeColumns,
	TypeFlex,
	TypeGrid,
	TypeCarousel,
	TypeTabs,
	TypeAccordion,
	TypeDataList,
	TypeDataTable,
}

// LayoutRootTypes is the subset of containers usable at the document root
// next to Section.
var LayoutRootTypes = []ComponentType{TypeCanvas}

// Kind returns the classification of the type. Unknown tags are content.
func (t ComponentType) Kind() Kind {
	if k, ok := kinds[t]; ok {
		return k
	}
	return KindContent
}

// IsContainer reports whether the type may own children.
func (t ComponentType) IsContainer() bool {
	switch t.Kind() {
	case KindSection, KindLayoutRoot, KindContainer:
		return true
	}
	return false
}

// IsLayoutRoot reports whether the type belongs to the layout root subset.
func (t ComponentType) IsLayoutRoot() bool {
	return t.Kind() == KindLayoutRoot
}
