package domain

// Kind names the block type of an element.
type Kind string

const (
	// Layout
	KindSection   Kind = "section"
	KindRow       Kind = "row"
	KindColumn    Kind = "column"
	KindGrid      Kind = "grid"
	KindContainer Kind = "container"
	KindSpacer    Kind = "spacer"
	KindDivider   Kind = "divider"
	// Basic
	KindText    Kind = "text"
	KindHeading Kind = "heading"
	KindImage   Kind = "image"
	KindButton  Kind = "button"
	KindIcon    Kind = "icon"
	KindBadge   Kind = "badge"
	// Navigation
	KindHeader     Kind = "header"
	KindFooter     Kind = "footer"
	KindMenu       Kind = "menu"
	KindBreadcrumb Kind = "breadcrumb"
	KindTabs       Kind = "tabs"
	// Content
	KindHero        Kind = "hero"
	KindCard        Kind = "card"
	KindGallery     Kind = "gallery"
	KindVideo       Kind = "video"
	KindTestimonial Kind = "testimonial"
	KindFAQ         Kind = "faq"
	// Catalog
	KindProductConfigurator Kind = "productConfigurator"
	KindProductGrid         Kind = "productGrid"
	KindProductFilters      Kind = "productFilters"
	KindProductCarousel     Kind = "productCarousel"
	KindCatalogTree         Kind = "catalogTree"
	// Configurators and calculators
	KindStepWizard         Kind = "stepWizard"
	KindComparisonTable    Kind = "comparisonTable"
	KindPriceCalculator    Kind = "priceCalculator"
	KindDeliveryCalculator Kind = "deliveryCalculator"
	KindDiscountCalculator Kind = "discountCalculator"
	// Interactive
	KindCart       Kind = "cart"
	KindWishlist   Kind = "wishlist"
	KindComparison Kind = "comparison"
	KindSearch     Kind = "search"
	// Forms
	KindForm     Kind = "form"
	KindInput    Kind = "input"
	KindTextarea Kind = "textarea"
	KindSelect   Kind = "select"
	KindCheckbox Kind = "checkbox"
	KindRadio    Kind = "radio"
	// Filters
	KindProductFilter    Kind = "productFilter"
	KindPropertyFilter   Kind = "propertyFilter"
	KindFilteredProducts Kind = "filteredProducts"
	// Special
	KindContact   Kind = "contact"
	KindAccordion Kind = "accordion"
)

// KindSpec describes the engine-relevant traits of a kind.
type KindSpec struct {
	Kind Kind
	// Container kinds may own child elements.
	Container bool
	// FilterCapable kinds receive structured filter descriptors and take
	// part in the by-name channel.
	FilterCapable bool
	// Emits marks kinds that announce a user-facing value to the bus.
	Emits bool
	// Defaults builds the initial properties of a new element.
	Defaults func() Properties
}

func noDefaults() Properties { return Properties{} }

func fixed(p Properties) func() Properties {
	return func() Properties { return p.Clone() }
}

var kinds = map[Kind]KindSpec{}

func register(spec KindSpec) {
	if spec.Defaults == nil {
		spec.Defaults = noDefaults
	}
	kinds[spec.Kind] = spec
}

func init() {
	for _, k := range []Kind{
		KindSection, KindRow, KindColumn, KindGrid, KindSpacer, KindDivider,
		KindIcon, KindBadge, KindHeader, KindFooter, KindMenu, KindBreadcrumb, KindTabs,
		KindHero, KindCard, KindGallery, KindVideo, KindTestimonial, KindFAQ,
		KindProductFilters, KindProductCarousel, KindStepWizard, KindComparisonTable,
		KindDeliveryCalculator, KindDiscountCalculator, KindWishlist, KindComparison,
		KindForm, KindInput, KindTextarea, KindCheckbox, KindRadio, KindContact, KindAccordion,
	} {
		register(KindSpec{Kind: k})
	}

	register(KindSpec{Kind: KindText, Defaults: fixed(Properties{
		"content": "Text", "fontSize": 16, "color": "#1f2937", "fontWeight": "normal",
	})})
	register(KindSpec{Kind: KindHeading, Defaults: fixed(Properties{
		"content": "Heading", "level": 1, "fontSize": 24, "color": "#1f2937", "fontWeight": "bold",
	})})
	register(KindSpec{Kind: KindImage, Defaults: fixed(Properties{
		"src": "", "alt": "Image", "width": 200, "height": 150,
	})})
	register(KindSpec{Kind: KindButton, Emits: true, Defaults: fixed(Properties{
		"text": "Button", "variant": "primary", "size": "medium",
	})})
	register(KindSpec{Kind: KindContainer, Container: true, Defaults: fixed(Properties{
		"layout": "block", "gap": 0,
	})})
	register(KindSpec{Kind: KindProductConfigurator, Emits: true, Defaults: fixed(Properties{
		"categoryIds": []string{}, "showFilters": true, "showGrid": true,
	})})
	register(KindSpec{Kind: KindProductGrid, Emits: true, Defaults: fixed(Properties{
		"categoryIds": []string{}, "limit": 12, "columns": 3, "showPrice": true, "filters": map[string]any{},
	})})
	register(KindSpec{Kind: KindFilteredProducts, Defaults: fixed(Properties{
		"categoryIds": []string{}, "limit": 12, "filters": map[string]any{},
	})})
	register(KindSpec{Kind: KindCatalogTree, Emits: true, Defaults: fixed(Properties{
		"categoryIds": []string{}, "expandAll": false,
	})})
	register(KindSpec{Kind: KindPriceCalculator, Defaults: fixed(Properties{
		"categoryIds": []string{}, "showBreakdown": true,
	})})
	register(KindSpec{Kind: KindCart, Defaults: fixed(Properties{
		"showItems": true, "showTotal": true,
	})})
	register(KindSpec{Kind: KindSearch, Emits: true, Defaults: fixed(Properties{
		"placeholder": "Search", "query": "",
	})})
	register(KindSpec{Kind: KindSelect, Emits: true, Defaults: fixed(Properties{
		"options": []string{}, "value": "",
	})})

	filterDefaults := fixed(Properties{
		"propertyName":  "",
		"selectedValue": "",
		"categoryIds":   []string{},
		"displaySettings": map[string]any{
			"showLabel": true, "layout": "list",
		},
	})
	register(KindSpec{Kind: KindPropertyFilter, FilterCapable: true, Emits: true, Defaults: filterDefaults})
	register(KindSpec{Kind: KindProductFilter, FilterCapable: true, Emits: true, Defaults: filterDefaults})
}

// LookupKind returns the spec of a kind. Unknown kinds get an empty spec
// with no defaults, so hosts can introduce kinds the engine does not know.
func LookupKind(k Kind) KindSpec {
	if spec, ok := kinds[k]; ok {
		return spec
	}
	return KindSpec{Kind: k, Defaults: noDefaults}
}

// Known reports whether k is a registered kind.
func (k Kind) Known() bool {
	_, ok := kinds[k]
	return ok
}

// Kinds lists every registered kind.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	return out
}
