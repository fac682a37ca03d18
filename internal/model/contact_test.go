package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkFetchedFlags(t *testing.T) {
	tests := []struct {
		name           string
		groups         PropertyGroups
		wantProperties bool
		wantThumbnail  bool
		wantPhoto      bool
	}{
		{"nothing", Groups(false, false, false), false, false, false},
		{"properties", Groups(true, false, false), true, false, false},
		{"images", Groups(false, true, true), false, true, true},
		{"single group", GroupPhones, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Contact{ID: "1"}
			c.MarkFetched(tt.groups)
			assert.Equal(t, tt.wantProperties, c.PropertiesFetched)
			assert.Equal(t, tt.wantThumbnail, c.ThumbnailFetched)
			assert.Equal(t, tt.wantPhoto, c.PhotoFetched)
		})
	}
}

func TestToMapOnlyFetchedGroups(t *testing.T) {
	c := &Contact{ID: "1", DisplayName: "Ann"}
	c.MarkFetched(0)
	m := c.ToMap()
	for _, key := range []string{"name", "phones", "emails", "addresses", "organizations", "websites", "notes", "events", "thumbnail", "photo"} {
		assert.NotContains(t, m, key)
	}
	assert.Equal(t, false, m["propertiesFetched"])

	c = &Contact{ID: "1", DisplayName: "Ann"}
	c.MarkFetched(GroupPhones | GroupNotes)
	m = c.ToMap()
	assert.Equal(t, []any{}, m["phones"])
	assert.Equal(t, []any{}, m["notes"])
	assert.NotContains(t, m, "emails")

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","displayName":"Ann","isStarred":false,"phones":[],"notes":[],
		"propertiesFetched":true,"thumbnailFetched":false,"photoFetched":false}`, string(b))
}

func TestToMapEventYear(t *testing.T) {
	year := 1990
	c := &Contact{ID: "1", Events: []Event{
		{Label: LabelBirthday, Month: 4, Day: 1},
		{Label: LabelAnniversary, Year: &year, Month: 6, Day: 2},
	}}
	c.MarkFetched(GroupEvents)
	events := c.ToMap()["events"].([]any)
	assert.NotContains(t, events[0].(map[string]any), "year")
	assert.Equal(t, 1990, events[1].(map[string]any)["year"])
}

func TestParseGroups(t *testing.T) {
	g, err := ParseGroups([]string{"Phones", "emails", " photo"})
	require.NoError(t, err)
	assert.Equal(t, GroupPhones|GroupEmails|GroupPhoto, g)
	assert.Equal(t, "phones,emails,photo", g.String())

	_, err = ParseGroups([]string{"ringtone"})
	assert.Error(t, err)
}

func TestEventDate(t *testing.T) {
	year, month, day, err := ParseEventDate("1990-04-01")
	require.NoError(t, err)
	require.NotNil(t, year)
	assert.Equal(t, 1990, *year)
	assert.Equal(t, 4, month)
	assert.Equal(t, 1, day)
	assert.Equal(t, "1990-04-01", FormatEventDate(year, month, day))

	year, month, day, err = ParseEventDate("--12-25")
	require.NoError(t, err)
	assert.Nil(t, year)
	assert.Equal(t, "--12-25", FormatEventDate(year, month, day))

	for _, bad := range []string{"", "1990/04/01", "1990-13-01", "--02", "abcd-01-01"} {
		_, _, _, err := ParseEventDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "5551234", DigitsOnly("555-1234"))
	assert.Equal(t, "14155550100", DigitsOnly("+1 (415) 555-0100"))
	assert.Equal(t, "", DigitsOnly("ext."))
}

func TestMatchDisplayName(t *testing.T) {
	assert.True(t, MatchDisplayName("Alice Smith", ""))
	assert.True(t, MatchDisplayName("Alice Smith", "SMITH"))
	assert.True(t, MatchDisplayName("Émile Zola", "émile"))
	assert.False(t, MatchDisplayName("Bob", "alice"))
}

func TestProviderDisplayName(t *testing.T) {
	assert.Equal(t, "Dr. Ann B. Lee Jr.", ProviderDisplayName(Name{NamePrefix: "Dr.", GivenName: "Ann", MiddleName: "B.", FamilyName: "Lee", NameSuffix: "Jr."}, nil, nil, nil))
	assert.Equal(t, "annie", ProviderDisplayName(Name{Nickname: "annie"}, nil, nil, nil))
	assert.Equal(t, "Acme", ProviderDisplayName(Name{}, []Organization{{Name: "Acme"}}, nil, nil))
	assert.Equal(t, "a@b.c", ProviderDisplayName(Name{}, nil, []Email{{Email: "a@b.c"}}, nil))
	assert.Equal(t, "555", ProviderDisplayName(Name{}, nil, nil, []Phone{{Number: "555"}}))
}

func TestProviderRowWrap(t *testing.T) {
	row := &ProviderDataRow{MimeType: MimeTypePhone}
	row.Data[0] = "+1 555-1234"
	row.Data[1] = "0"
	row.Data[2] = "Gym"
	phone := row.WrapPhone()
	assert.Equal(t, "15551234", phone.NormalizedNumber)
	assert.Equal(t, "Gym", phone.Label)
	assert.Equal(t, "Gym", phone.CustomLabel)
	assert.Equal(t, TypeCustom, phone.RawType)

	row = &ProviderDataRow{MimeType: MimeTypeEvent}
	row.Data[0] = "--04-01"
	row.Data[1] = "3"
	event, err := row.WrapEvent()
	require.NoError(t, err)
	assert.Equal(t, LabelBirthday, event.Label)
	assert.Nil(t, event.Year)

	row.Data[0] = "garbage"
	_, err = row.WrapEvent()
	assert.Error(t, err)
}

func TestGraphWrap(t *testing.T) {
	gc := &GraphContact{
		Identifier:       "A:ABPerson",
		GivenName:        "Ann",
		OrganizationName: "Acme",
		PhoneNumbers:     []GraphLabeledValue{{Identifier: "p1", Label: GraphLabelIPhone, Value: "555-1234"}},
		Birthday:         &GraphDateComponents{Month: 4, Day: 1},
		Dates:            []GraphLabeledDate{{Identifier: "d1", Label: GraphLabelAnniversary, Value: GraphDateComponents{Year: 2001, Month: 6, Day: 30}}},
		Note:             "hi",
	}

	c := gc.Wrap(0)
	assert.Equal(t, "Ann", c.DisplayName)
	assert.Nil(t, c.Phones)
	assert.False(t, c.PropertiesFetched)

	c = gc.Wrap(AllProperties)
	require.Len(t, c.Phones, 1)
	assert.Equal(t, LabelMobile, c.Phones[0].Label)
	assert.Equal(t, "5551234", c.Phones[0].NormalizedNumber)
	assert.Equal(t, []Organization{{Name: "Acme"}}, c.Organizations)
	require.Len(t, c.Events, 2)
	assert.Equal(t, LabelBirthday, c.Events[0].Label)
	assert.Equal(t, LabelAnniversary, c.Events[1].Label)
	assert.Equal(t, []Note{{Note: "hi"}}, c.Notes)
	assert.NotNil(t, c.Emails)
	assert.Empty(t, c.Emails)

	assert.Equal(t, "Acme", (&GraphContact{OrganizationName: "Acme"}).FullName())
}

func TestContactFromMap(t *testing.T) {
	c := &Contact{ID: "7", DisplayName: "Ann", Phones: []Phone{{Number: "555-1234", NormalizedNumber: "5551234", Label: LabelMobile, RawType: PhoneTypeMobile}}}
	c.MarkFetched(GroupPhones)

	back, err := ContactFromMap(c.ToMap())
	require.NoError(t, err)
	assert.Equal(t, "7", back.ID)
	assert.Equal(t, "Ann", back.DisplayName)
	assert.Equal(t, c.Phones, back.Phones)
	assert.True(t, back.PropertiesFetched)
	assert.Equal(t, []string{"7", "Ann", "555-1234", ""}, back.CSV())
}
