// internal/app/system/clientroutes/clientroutes.go
package clientroutes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dalemusser/nftjr/internal/domain/models"
)

// Variant names one of the fixed client route tables.
type Variant string

const (
	// Login exposes only the login view.
	Login Variant = "login"
	// Store is the full storefront and the default.
	Store Variant = "store"

	Default = Store
)

var tables = map[Variant][]models.Route{
	Login: {
		{Path: "/login", View: "Login"},
	},
	Store: {
		{Path: "/", View: "Home"},
		{Path: "/login", View: "Login"},
		{Path: "/family", View: "Family"},
		{Path: "/upload", View: "Upload"},
	},
}

// Variants lists the known variants in a stable order.
func Variants() []Variant {
	return []Variant{Login, Store}
}

// Parse maps a configured name to a Variant. A blank name selects Default.
func Parse(name string) (Variant, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Default, nil
	}
	v := Variant(name)
	if _, ok := tables[v]; !ok {
		return "", fmt.Errorf("unknown route variant %q (want one of %v)", name, Variants())
	}
	return v, nil
}

// Routes returns a copy of the variant's route table, or nil for an unknown
// variant.
func Routes(v Variant) []models.Route {
	return slices.Clone(tables[v])
}

// Has reports whether path is declared in routes. Matching is exact apart
// from a trailing slash.
func Has(routes []models.Route, path string) bool {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	for _, r := range routes {
		if r.Path == path {
			return true
		}
	}
	return false
}
