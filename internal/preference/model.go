package preference

import "time"

// Category is a cookie category a visitor can consent to.
type Category string

const (
	Essential       Category = "essential"
	Analytics       Category = "analytics"
	Personalization Category = "personalization"
	Ads             Category = "ads"
)

// Categories lists every category in display order.
var Categories = []Category{Essential, Analytics, Personalization, Ads}

// Preferences is the per-category consent decision. Essential is always true.
type Preferences struct {
	Essential       bool `json:"essential"`
	Analytics       bool `json:"analytics"`
	Personalization bool `json:"personalization"`
	Ads             bool `json:"ads"`
}

// AcceptAll enables every category.
func AcceptAll() Preferences {
	return Preferences{Essential: true, Analytics: true, Personalization: true, Ads: true}
}

// RejectAll keeps only essential cookies.
func RejectAll() Preferences {
	return Preferences{Essential: true}
}

// Normalize forces the essential category on.
func (p Preferences) Normalize() Preferences {
	p.Essential = true
	return p
}

// Allowed reports whether the category is enabled.
func (p Preferences) Allowed(c Category) bool {
	switch c {
	case Essential:
		return true
	case Analytics:
		return p.Analytics
	case Personalization:
		return p.Personalization
	case Ads:
		return p.Ads
	default:
		return false
	}
}

// ConsentRecord is the persisted consent decision.
type ConsentRecord struct {
	Preferences   Preferences `json:"preferences"`
	ExpiresAt     time.Time   `json:"expiresAt"`
	SchemaVersion string      `json:"schemaVersion"`
}

// storedRecord is the persisted wire shape. Pointers distinguish missing fields from zero values.
type storedRecord struct {
	Prefs   *Preferences `json:"prefs"`
	Expiry  *time.Time   `json:"expiry"`
	Version string       `json:"version,omitempty"`
}
