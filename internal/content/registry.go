package content

import "slices"

// Page type discriminators stored in pages.type.
const (
	TypeHome            = "home"
	TypeIndustriesIndex = "industries_index"
	TypeIndustry        = "industry"
	TypePartnersIndex   = "partners_index"
	TypePartner         = "partner"
	TypePeopleIndex     = "people_index"
	TypePerson          = "person"
	TypeBreadsIndex     = "breads_index"
	TypeBread           = "bread"
	TypeLocationsIndex  = "locations_index"
	TypeLocation        = "location"
)

// Ordering controls how an index lists its descendants.
type Ordering int

const (
	// OrderTree lists pages in tree (path) order.
	OrderTree Ordering = iota
	// OrderFirstPublishedDesc lists the most recently first-published pages first.
	OrderFirstPublishedDesc
)

// TypeInfo describes one page type.
type TypeInfo struct {
	Name         string
	Label        string
	Plural       string
	ParentTypes  []string // empty means any parent
	SubpageTypes []string // empty means any child unless NoChildren
	NoChildren   bool

	// Index-only settings.
	Binds    string
	PageSize int
	Ordering Ordering
	Routable bool // exposes tags/ and tags/<slug>/ sub-routes
}

// IsIndex reports whether the type lists a bound content type.
func (t TypeInfo) IsIndex() bool {
	return t.Binds != ""
}

var registry = map[string]TypeInfo{
	TypeHome: {
		Name:   TypeHome,
		Label:  "Home page",
		Plural: "home pages",
	},
	TypeIndustriesIndex: {
		Name:         TypeIndustriesIndex,
		Label:        "Industries index page",
		Plural:       "industries index pages",
		ParentTypes:  []string{TypeHome},
		SubpageTypes: []string{TypeIndustry},
		Binds:        TypeIndustry,
		Routable:     true,
	},
	TypeIndustry: {
		Name:        TypeIndustry,
		Label:       "Industry page",
		Plural:      "industries",
		ParentTypes: []string{TypeIndustriesIndex},
		NoChildren:  true,
	},
	TypePartnersIndex: {
		Name:         TypePartnersIndex,
		Label:        "Partners index page",
		Plural:       "partners index pages",
		ParentTypes:  []string{TypeHome},
		SubpageTypes: []string{TypePartner},
		Binds:        TypePartner,
		PageSize:     6,
		Routable:     true,
	},
	TypePartner: {
		Name:        TypePartner,
		Label:       "Partner page",
		Plural:      "partners",
		ParentTypes: []string{TypePartnersIndex},
		NoChildren:  true,
	},
	TypePeopleIndex: {
		Name:         TypePeopleIndex,
		Label:        "People index page",
		Plural:       "people index pages",
		ParentTypes:  []string{TypeHome},
		SubpageTypes: []string{TypePerson},
		Binds:        TypePerson,
		PageSize:     12,
		Ordering:     OrderFirstPublishedDesc,
	},
	TypePerson: {
		Name:        TypePerson,
		Label:       "Person",
		Plural:      "people",
		ParentTypes: []string{TypePeopleIndex},
		NoChildren:  true,
	},
	TypeBreadsIndex: {
		Name:         TypeBreadsIndex,
		Label:        "Breads index page",
		Plural:       "breads index pages",
		ParentTypes:  []string{TypeHome},
		SubpageTypes: []string{TypeBread},
		Binds:        TypeBread,
	},
	TypeBread: {
		Name:        TypeBread,
		Label:       "Bread page",
		Plural:      "breads",
		ParentTypes: []string{TypeBreadsIndex},
		NoChildren:  true,
	},
	TypeLocationsIndex: {
		Name:         TypeLocationsIndex,
		Label:        "Locations index page",
		Plural:       "locations index pages",
		ParentTypes:  []string{TypeHome},
		SubpageTypes: []string{TypeLocation},
		Binds:        TypeLocation,
	},
	TypeLocation: {
		Name:        TypeLocation,
		Label:       "Location page",
		Plural:      "locations",
		ParentTypes: []string{TypeLocationsIndex},
		NoChildren:  true,
	},
}

// Lookup returns the registered info for a page type.
func Lookup(pageType string) (TypeInfo, bool) {
	info, ok := registry[pageType]
	return info, ok
}

// Types returns all registered type names in a stable order.
func Types() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRootType reports whether a page of this type may be created without a parent.
func IsRootType(pageType string) bool {
	return pageType == TypeHome
}

// CanCreateUnder reports whether a page of childType may be appended under a
// page of parentType. Both whitelists must agree.
func CanCreateUnder(parentType, childType string) bool {
	if IsRootType(childType) {
		return false
	}
	parent, ok := registry[parentType]
	if !ok {
		return false
	}
	child, ok := registry[childType]
	if !ok {
		return false
	}
	if parent.NoChildren {
		return false
	}
	if len(parent.SubpageTypes) > 0 && !slices.Contains(parent.SubpageTypes, childType) {
		return false
	}
	if len(child.ParentTypes) > 0 && !slices.Contains(child.ParentTypes, parentType) {
		return false
	}
	return true
}
