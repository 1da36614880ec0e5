package prefab

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ThemeObjectSlots is the number of object colors a theme holds.
const ThemeObjectSlots = 9

// ErrThemeOverflow is returned when a palette has more colors than a theme
// has object slots.
var ErrThemeOverflow = errors.New("prefab: palette does not fit in theme")

// Theme is a named set of colors, hex encoded as #RRGGBB.
type Theme struct {
	Name       string                   `json:"name"`
	Background string                   `json:"background"`
	GUI        string                   `json:"gui"`
	Objects    [ThemeObjectSlots]string `json:"objects"`
}

// NewTheme returns a theme with a black background and a grey ramp from
// white to black in its object slots.
func NewTheme(name string) *Theme {
	t := &Theme{Name: name, Background: "#000000", GUI: "#FFFFFF"}
	for i := range t.Objects {
		v := uint8(255 - i*255/(ThemeObjectSlots-1))
		t.Objects[i] = fmt.Sprintf("#%02X%02X%02X", v, v, v)
	}
	return t
}

// SetObjects fills the object slots from the front. Remaining slots keep
// their current color.
func (t *Theme) SetObjects(colors []string) error {
	if len(colors) > ThemeObjectSlots {
		return fmt.Errorf("%d colors for %d slots: %w", len(colors), ThemeObjectSlots, ErrThemeOverflow)
	}
	copy(t.Objects[:], colors)
	return nil
}

// Write encodes the theme as indented JSON.
func (t *Theme) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// ExportToFile writes the theme to path, creating parent directories.
func (t *Theme) ExportToFile(path string) error {
	return writeFile(path, t.Write)
}
