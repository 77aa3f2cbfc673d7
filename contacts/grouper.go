package contacts

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Section struct {
	Title    string    `json:"title"`
	Contacts []Contact `json:"data"`
}

// Group buckets contacts by the uppercased first letter of their name.
// Input order is kept inside a bucket and buckets are sorted by title.
// Contacts with an empty name land in the "" bucket, which sorts first.
func Group(contacts []Contact) []Section {
	sections := []Section{}
	indexByTitle := map[string]int{}

	for _, contact := range contacts {
		title := sectionTitle(contact.Name)

		idx, ok := indexByTitle[title]
		if !ok {
			idx = len(sections)
			indexByTitle[title] = idx
			sections = append(sections, Section{Title: title})
		}

		sections[idx].Contacts = append(sections[idx].Contacts, contact)
	}

	sort.Slice(sections, func(i, j int) bool {
		return sections[i].Title < sections[j].Title
	})

	return sections
}

func sectionTitle(name string) string {
	name = strings.TrimLeftFunc(name, unicode.IsSpace)
	if name == "" {
		return ""
	}

	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}
