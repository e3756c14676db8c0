package permapps

import (
	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
)

// CategorizedView is the categorized app list of one permission group
type CategorizedView struct {
	Buckets           map[permgroup.Category][]permgroup.PackageUser `json:"buckets"`
	ShowAlwaysAllowed bool                                           `json:"show_always_allowed"`
}

// NewCategorizedView returns a view with an empty bucket per category
func NewCategorizedView() CategorizedView {
	buckets := make(map[permgroup.Category][]permgroup.PackageUser, len(permgroup.Categories))
	for _, c := range permgroup.Categories {
		buckets[c] = []permgroup.PackageUser{}
	}
	return CategorizedView{Buckets: buckets}
}

// Bucket returns the apps listed under c
func (v CategorizedView) Bucket(c permgroup.Category) []permgroup.PackageUser {
	return v.Buckets[c]
}

// CategoryOf returns the category key is listed under
func (v CategorizedView) CategoryOf(key permgroup.PackageUser) (permgroup.Category, bool) {
	for _, c := range permgroup.Categories {
		for _, k := range v.Buckets[c] {
			if k == key {
				return c, true
			}
		}
	}
	return "", false
}

// Len returns the number of listed apps
func (v CategorizedView) Len() int {
	n := 0
	for _, b := range v.Buckets {
		n += len(b)
	}
	return n
}
