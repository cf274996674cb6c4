package content

import (
	"cmp"
	"slices"
)

// MenuItem is a single admin listing inside a menu group.
type MenuItem struct {
	Label string `json:"label"`
	Model string `json:"model"`
}

// MenuGroup groups admin listings under one menu entry.
type MenuGroup struct {
	Label string     `json:"label"`
	Icon  string     `json:"icon"`
	Order int        `json:"order"`
	Items []MenuItem `json:"items"`
}

var menuGroups = []MenuGroup{
	{
		Label: "Bread Categories",
		Icon:  "fa-suitcase",
		Order: 200,
		Items: []MenuItem{
			{Label: "Bread ingredients", Model: "bread_ingredient"},
			{Label: "Bread types", Model: "bread_type"},
			{Label: "Countries", Model: "country"},
		},
	},
	{
		Label: "Bakery Misc",
		Icon:  "fa-cutlery",
		Order: 300,
		Items: []MenuItem{
			{Label: "Footer text", Model: "footer_text"},
		},
	},
	{
		Label: "Partners",
		Icon:  "fa-building",
		Order: 200,
		Items: []MenuItem{
			{Label: "Partner page tags", Model: "tag"},
			{Label: "Partner types", Model: "partner_type"},
			{Label: "Countries", Model: "country"},
		},
	},
	{
		Label: "People",
		Icon:  "fa-users",
		Order: 300,
		Items: []MenuItem{{Label: "People", Model: TypePerson}},
	},
	{
		Label: "Locations",
		Icon:  "fa-map",
		Order: 300,
		Items: []MenuItem{{Label: "Locations", Model: TypeLocation}},
	},
	{
		Label: "Industries",
		Icon:  "fa-industry",
		Order: 300,
		Items: []MenuItem{{Label: "Industries", Model: TypeIndustry}},
	},
}

// Menu returns the admin menu groups ordered by Order, keeping declaration
// order for equal values.
func Menu() []MenuGroup {
	groups := make([]MenuGroup, len(menuGroups))
	for i, group := range menuGroups {
		group.Items = slices.Clone(group.Items)
		groups[i] = group
	}
	slices.SortStableFunc(groups, func(a, b MenuGroup) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return groups
}
