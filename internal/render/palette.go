package render

var (
	defaultPalette = []rune(" .,:-=+*#%@")
	blocksPalette  = []rune(" ░▒▓█")
	dotsPalette    = []rune(" ·∙•●")
	sparkPalette   = []rune("  ´`^\"~:;*+×•¤°oO@#█")
)

// Palette returns characters used for brightness mapping.
func Palette(name string) []rune {
	switch name {
	case "blocks":
		return blocksPalette
	case "dots":
		return dotsPalette
	case "spark":
		return sparkPalette
	default:
		return defaultPalette
	}
}

// PaletteNames returns all palette identifiers.
func PaletteNames() []string {
	return []string{"default", "blocks", "dots", "spark"}
}
