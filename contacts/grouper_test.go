package contacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroup(t *testing.T) {
	bob := Contact{ID: 1, Name: "bob", Phone: "1"}
	ann := Contact{ID: 2, Name: "Ann", Phone: "2"}
	alex := Contact{ID: 3, Name: "alex", Phone: "3"}
	blank := Contact{ID: 4, Name: "", Phone: "4"}
	spaced := Contact{ID: 5, Name: "  zoe", Phone: "5"}
	accented := Contact{ID: 6, Name: "émile", Phone: "6"}

	cases := []struct {
		description string
		input       []Contact
		expected    []Section
	}{
		{
			description: "Should return no sections for no contacts",
			input:       []Contact{},
			expected:    []Section{},
		},
		{
			description: "Should sort sections by title",
			input:       []Contact{bob, ann},
			expected: []Section{
				{Title: "A", Contacts: []Contact{ann}},
				{Title: "B", Contacts: []Contact{bob}},
			},
		},
		{
			description: "Should keep input order inside a section",
			input:       []Contact{bob, ann, alex},
			expected: []Section{
				{Title: "A", Contacts: []Contact{ann, alex}},
				{Title: "B", Contacts: []Contact{bob}},
			},
		},
		{
			description: "Should put empty names first and ignore leading spaces",
			input:       []Contact{spaced, blank, accented},
			expected: []Section{
				{Title: "", Contacts: []Contact{blank}},
				{Title: "Z", Contacts: []Contact{spaced}},
				{Title: "É", Contacts: []Contact{accented}},
			},
		},
	}

	for _, c := range cases {
		assert.Equal(t, c.expected, Group(c.input), c.description)
	}
}

func TestGroupNil(t *testing.T) {
	sections := Group(nil)
	assert.NotNil(t, sections)
	assert.Empty(t, sections)
}
