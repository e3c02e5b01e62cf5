package model

import (
	"fmt"
	"strings"
)

// Align is the screen placement of a notification. Notifications sharing
// an Align form one bucket in the container.
type Align int

const (
	AlignTopLeft Align = iota
	AlignTopCenter
	AlignTopRight
	AlignCenter
	// AlignUnknown is reserved for modal notifications; only one of them
	// is open at a time.
	AlignUnknown
	AlignBottomLeft
	AlignBottomCenter
	AlignBottomRight
)

var alignNames = map[Align]string{
	AlignTopLeft:      "top-left",
	AlignTopCenter:    "top-center",
	AlignTopRight:     "top-right",
	AlignCenter:       "center",
	AlignUnknown:      "unknown",
	AlignBottomLeft:   "bottom-left",
	AlignBottomCenter: "bottom-center",
	AlignBottomRight:  "bottom-right",
}

// Aligns returns every alignment in declaration order.
func Aligns() []Align {
	return []Align{
		AlignTopLeft,
		AlignTopCenter,
		AlignTopRight,
		AlignCenter,
		AlignUnknown,
		AlignBottomLeft,
		AlignBottomCenter,
		AlignBottomRight,
	}
}

// String returns the string representation of Align.
func (a Align) String() string {
	if name, ok := alignNames[a]; ok {
		return name
	}
	return fmt.Sprintf("align(%d)", int(a))
}

// Valid reports whether a is one of the declared alignments.
func (a Align) Valid() bool {
	_, ok := alignNames[a]
	return ok
}

// ParseAlign parses names like "top-right" (also accepts "top_right" and
// "TopRight").
func ParseAlign(s string) (Align, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	for a, name := range alignNames {
		if strings.ReplaceAll(name, "-", "") == norm {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlign, s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Align) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlign, int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Align) UnmarshalText(text []byte) error {
	parsed, err := ParseAlign(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
