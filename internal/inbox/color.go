package inbox

import "unicode/utf16"

// PaletteSize is the number of sender colours.
const PaletteSize = 6

// SenderColor maps a sender name to a palette index in [0, PaletteSize).
// The same name always gets the same index.
func SenderColor(name string) int {
	var h int32
	for _, cu := range utf16.Encode([]rune(name)) {
		h = h<<5 - h + int32(cu)
	}
	a := int64(h)
	if a < 0 {
		a = -a
	}
	return int(a % PaletteSize)
}
