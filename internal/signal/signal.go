// Package signal classifies raw trade labels into canonical entry/exit
// categories according to a named strategy profile.
package signal

// Category is the canonical classification of a raw signal label.
type Category string

const (
	CategoryIgnored   Category = "ignored"
	CategoryEntryOpen Category = "entry_open"
	CategoryAdd       Category = "add"
	CategoryExitLong  Category = "exit_long"
	CategoryExitShort Category = "exit_short"
)

// Side is the position direction carried by a signal, when the profile
// tracks one.
type Side string

const (
	SideNone  Side = ""
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Normalized is the profile's verdict for a single raw label.
type Normalized struct {
	Category  Category `json:"category"`
	Side      Side     `json:"side,omitempty"`
	Canonical string   `json:"canonical,omitempty"`
}

// Entry reports whether the signal opens or adds to a position.
func (n Normalized) Entry() bool {
	return n.Category == CategoryEntryOpen || n.Category == CategoryAdd
}

// Exit reports whether the signal closes a position group.
func (n Normalized) Exit() bool {
	return n.Category == CategoryExitLong || n.Category == CategoryExitShort
}

// Profile maps raw labels to normalized signals. Implementations never
// fail on an unrecognized label; those map to CategoryIgnored.
type Profile interface {
	Name() string
	Normalize(label string) Normalized
}
