package content

import (
	"github.com/colivhub/portal-server-go/internal/model"
)

// SectionKey identifies a kind of tenant content. Stored rows and the static
// tables both draw their keys from Vocabulary.
type SectionKey string

const (
	SectionWelcome    SectionKey = "welcome"
	SectionHouseRules SectionKey = "house_rules"
	SectionWifi       SectionKey = "wifi"
	SectionKitchen    SectionKey = "kitchen"
	SectionCleaning   SectionKey = "cleaning"
	SectionTrash      SectionKey = "trash"
	SectionLaundry    SectionKey = "laundry"
	SectionQuietHours SectionKey = "quiet_hours"
	SectionGuests     SectionKey = "guests"
	SectionEmergency  SectionKey = "emergency"
	SectionCheckout   SectionKey = "checkout"
)

// SectionMeta is the fixed display metadata of a section key.
type SectionMeta struct {
	Icon    string
	TitleFR string
	TitleEN string
	Order   int
}

func (m SectionMeta) Title(lang model.Language) string {
	return model.Pick(lang, m.TitleFR, m.TitleEN)
}

// DefaultIcon is used for keys outside the vocabulary.
const DefaultIcon = "info"

var Vocabulary = map[SectionKey]SectionMeta{
	SectionWelcome:    {Icon: "home", TitleFR: "Bienvenue", TitleEN: "Welcome", Order: 0},
	SectionHouseRules: {Icon: "clipboard-list", TitleFR: "Règles de la maison", TitleEN: "House rules", Order: 1},
	SectionWifi:       {Icon: "wifi", TitleFR: "Wi-Fi", TitleEN: "Wi-Fi", Order: 2},
	SectionKitchen:    {Icon: "utensils", TitleFR: "Cuisine", TitleEN: "Kitchen", Order: 3},
	SectionCleaning:   {Icon: "sparkles", TitleFR: "Ménage", TitleEN: "Cleaning", Order: 4},
	SectionTrash:      {Icon: "trash-2", TitleFR: "Poubelles et tri", TitleEN: "Trash and recycling", Order: 5},
	SectionLaundry:    {Icon: "shirt", TitleFR: "Buanderie", TitleEN: "Laundry", Order: 6},
	SectionQuietHours: {Icon: "moon", TitleFR: "Heures calmes", TitleEN: "Quiet hours", Order: 7},
	SectionGuests:     {Icon: "users", TitleFR: "Invités", TitleEN: "Guests", Order: 8},
	SectionEmergency:  {Icon: "phone", TitleFR: "Urgences", TitleEN: "Emergencies", Order: 9},
	SectionCheckout:   {Icon: "log-out", TitleFR: "Départ", TitleEN: "Check-out", Order: 10},
}

func IsKnownSection(key string) bool {
	_, ok := Vocabulary[SectionKey(key)]
	return ok
}

// Meta returns the metadata of key, or a neutral entry for unknown keys.
func Meta(key SectionKey) SectionMeta {
	if m, ok := Vocabulary[key]; ok {
		return m
	}
	return SectionMeta{Icon: DefaultIcon, TitleFR: string(key), TitleEN: string(key), Order: len(Vocabulary)}
}
