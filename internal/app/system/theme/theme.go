// internal/app/system/theme/theme.go
package theme

import "github.com/dalemusser/nftjr/internal/domain/models"

// Light palette shared by every route variant.
const (
	Primary   = "#3A356D"
	Secondary = "#F8EADC"
	Accent    = "#3BA2CB"
)

// Default returns the light theme.
func Default() models.Theme {
	return models.Theme{Primary: Primary, Secondary: Secondary, Accent: Accent}
}
