// internal/domain/models/route.go
package models

// Route maps a client-side URL path to the view that renders it.
type Route struct {
	Path string `json:"path"`
	View string `json:"view"`
}

// Theme is the client palette. Colors are CSS hex strings.
type Theme struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}
