package state

import (
	"fmt"
	"image/color"
	"strings"
)

// Palette is the fixed set of user colours, indexed by ColorFor.
var Palette = []string{
	"red", "blue", "green", "purple", "orange", "teal", "pink", "cyan",
	"yellow", "brown", "magenta", "lime", "indigo", "violet", "gold", "silver",
	"navy", "maroon", "turquoise", "coral", "salmon", "plum", "olive", "orchid",
}

// ColorFor deterministically picks a palette colour for userID.
func ColorFor(userID string) string {
	if userID == "" {
		return "black"
	}
	sum := 0
	for _, r := range userID {
		sum += int(r)
	}
	return Palette[sum%len(Palette)]
}

var namedColors = map[string]color.RGBA{
	"black":     {0, 0, 0, 255},
	"white":     {255, 255, 255, 255},
	"red":       {255, 0, 0, 255},
	"blue":      {0, 0, 255, 255},
	"green":     {0, 128, 0, 255},
	"purple":    {128, 0, 128, 255},
	"orange":    {255, 165, 0, 255},
	"teal":      {0, 128, 128, 255},
	"pink":      {255, 192, 203, 255},
	"cyan":      {0, 255, 255, 255},
	"yellow":    {255, 255, 0, 255},
	"brown":     {165, 42, 42, 255},
	"magenta":   {255, 0, 255, 255},
	"lime":      {0, 255, 0, 255},
	"indigo":    {75, 0, 130, 255},
	"violet":    {238, 130, 238, 255},
	"gold":      {255, 215, 0, 255},
	"silver":    {192, 192, 192, 255},
	"navy":      {0, 0, 128, 255},
	"maroon":    {128, 0, 0, 255},
	"turquoise": {64, 224, 208, 255},
	"coral":     {255, 127, 80, 255},
	"salmon":    {250, 128, 114, 255},
	"plum":      {221, 160, 221, 255},
	"olive":     {128, 128, 0, 255},
	"orchid":    {218, 112, 214, 255},
}

// ParseColor resolves a palette name or a #rrggbb string. Anything else
// falls back to opaque black.
func ParseColor(s string) color.RGBA {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c
	}
	if len(s) == 7 && s[0] == '#' {
		var r, g, b uint8
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err == nil {
			return color.RGBA{R: r, G: g, B: b, A: 255}
		}
	}
	return namedColors["black"]
}
