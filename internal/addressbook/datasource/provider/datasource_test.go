package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjzar/contactsbridge/internal/errors"
	"github.com/sjzar/contactsbridge/internal/model"
)

func newTestDataSource(t *testing.T) *DataSource {
	t.Helper()
	ds, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return ds
}

func decode(t *testing.T, m map[string]any) *model.ContactPatch {
	t.Helper()
	p, err := model.DecodePatch(m)
	require.NoError(t, err)
	return p
}

func TestCreateAndGetContact(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataSource(t)

	id, err := ds.CreateContact(ctx, decode(t, map[string]any{
		"name":   map[string]any{"givenName": "Ann"},
		"phones": []any{map[string]any{"number": "555-1234", "label": "mobile"}},
	}))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	c, err := ds.GetContact(ctx, id, model.AllProperties)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, id, c.ID)
	assert.Equal(t, "Ann", c.DisplayName)
	assert.Equal(t, "Ann", c.Name.GivenName)
	require.Len(t, c.Phones, 1)
	assert.Equal(t, "5551234", c.Phones[0].NormalizedNumber)
	assert.Equal(t, model.LabelMobile, c.Phones[0].Label)
	assert.Equal(t, model.PhoneTypeMobile, c.Phones[0].RawType)
	assert.NotNil(t, c.Emails)
	assert.Empty(t, c.Emails)
	assert.True(t, c.PropertiesFetched)
	assert.False(t, c.ThumbnailFetched)
}

func TestCreateContactAllGroups(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataSource(t)

	id, err := ds.CreateContact(ctx, decode(t, map[string]any{
		"isStarred":     true,
		"name":          map[string]any{"givenName": "Ann", "familyName": "Lee", "nickname": "annie"},
		"emails":        []any{map[string]any{"email": "ann@example.com", "label": "custom", "customLabel": "School"}},
		"addresses":     []any{map[string]any{"street": "1 Main St", "city": "Springfield", "label": "home"}},
		"organizations": []any{map[string]any{"name": "Acme", "jobTitle": "CTO"}, map[string]any{}},
		"websites":      []any{map[string]any{"url": "https://example.com", "label": "blog"}},
		"notes":         []any{map[string]any{"note": "first"}, map[string]any{"note": ""}},
		"events": []any{
			map[string]any{"label": "birthday", "month": 4, "day": 1},
			map[string]any{"label": "anniversary", "year": 2001, "month": 6, "day": 30},
		},
	}))
	require.NoError(t, err)

	c, err := ds.GetContact(ctx, id, model.AllProperties)
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.True(t, c.IsStarred)
	assert.Equal(t, "Ann Lee", c.DisplayName)
	assert.Equal(t, "annie", c.Name.Nickname)
	require.Len(t, c.Emails, 1)
	assert.Equal(t, "School", c.Emails[0].Label)
	assert.Equal(t, "School", c.Emails[0].CustomLabel)
	assert.Equal(t, model.TypeCustom, c.Emails[0].RawType)
	require.Len(t, c.Addresses, 1)
	assert.Equal(t, "Springfield", c.Addresses[0].City)
	assert.Equal(t, model.LabelHome, c.Addresses[0].Label)
	assert.Equal(t, []model.Organization{{Name: "Acme", JobTitle: "CTO"}}, c.Organizations)
	require.Len(t, c.Websites, 1)
	assert.Equal(t, model.LabelBlog, c.Websites[0].Label)
	assert.Equal(t, []model.Note{{Note: "first"}}, c.Notes)
	require.Len(t, c.Events, 2)
	assert.Equal(t, model.LabelBirthday, c.Events[0].Label)
	assert.Nil(t, c.Events[0].Year)
	require.NotNil(t, c.Events[1].Year)
	assert.Equal(t, 2001, *c.Events[1].Year)
}

func TestDisplayNameFallback(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataSource(t)

	id, err := ds.CreateContact(ctx, decode(t, map[string]any{
		"organization": map[string]any{"name": "Acme"},
		"phones":       []any{map[string]any{"number": "555"}},
	}))
	require.NoError(t, err)
	c, err := ds.GetContact(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.DisplayName)
}

func TestUpdateOnlyTouchesPresentFields(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataSource(t)

	id, err := ds.CreateContact(ctx, decode(t, map[string]any{
		"name":   map[string]any{"givenName": "Ann", "familyName": "Lee"},
		"phones": []any{map[string]any{"number": "555-1234", "label": "mobile"}},
		"emails": []any{map[string]any{"email": "ann@example.com", "label": "work"}},
	}))
	require.NoError(t, err)

	require.NoError(t, ds.UpdateContact(ctx, id, decode(t, map[string]any{"id": id, "note": "hello"})))

	c, err := ds.GetContact(ctx, id, model.AllProperties)
	require.NoError(t, err)
	assert.Equal(t, []model.Note{{Note: "hello"}}, c.Notes)
	require.Len(t, c.Phones, 1)
	assert.Equal(t, "555-1234", c.Phones[0].Number)
	require.Len(t, c.Emails, 1)
	assert.Equal(t, "ann@example.com", c.Emails[0].Email)
	assert.Equal(t, "Ann Lee", c.DisplayName)

	// 只修改名字的一部分
	require.NoError(t, ds.UpdateContact(ctx, id, decode(t, map[string]any{
		"name":      map[string]any{"givenName": "Anne"},
		"isStarred": true,
	})))
	c, err = ds.GetContact(ctx, id, model.GroupName|model.GroupNotes)
	require.NoError(t, err)
	assert.Equal(t, "Anne", c.Name.GivenName)
	assert.Equal(t, "Lee", c.Name.FamilyName)
	assert.Equal(t, "Anne Lee", c.DisplayName)
	assert.True(t, c.IsStarred)
	assert.Equal(t, []model.Note{{Note: "hello"}}, c.Notes)

	// 空列表清空该组
	require.NoError(t, ds.UpdateContact(ctx, id, decode(t, map[string]any{"phones": []any{}})))
	c, err = ds.GetContact(ctx, id, model.GroupPhones|model.GroupEmails)
	require.NoError(t, err)
	assert.Empty(t, c.Phones)
	assert.Len(t, c.Emails, 1)
}

func TestUpdateUnknownContact(t *testing.T) {
	ds := newTestDataSource(t)
	err := ds.UpdateContact(context.Background(), "42", decode(t, map[string]any{"note": "x"}))
	assert.True(t, errors.Is(err, errors.CodeContactNotFound))

	err = ds.UpdateContact(context.Background(), "not-a-number", decode(t, map[string]any{"note": "x"}))
	assert.True(t, errors.Is(err, errors.CodeContactNotFound))
}

func TestDeleteContact(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataSource(t)

	id, err := ds.CreateContact(ctx, decode(t, map[string]any{
		"name":  map[string]any{"givenName": "Ann"},
		"photo": []byte("photo bytes"),
	}))
	require.NoError(t, err)

	require.NoError(t, ds.DeleteContact(ctx, id))

	c, err := ds.GetContact(ctx, id, model.AllGroups)
	require.NoError(t, err)
	assert.Nil(t, c)

	err = ds.DeleteContact(ctx, id)
	assert.True(t, errors.Is(err, errors.CodeContactNotFound))

	var n int
	require.NoError(t, ds.db.QueryRow(`SELECT COUNT(*) FROM data`).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, ds.db.QueryRow(`SELECT COUNT(*) FROM photo_files`).Scan(&n))
	assert.Zero(t, n)
}

func TestGetContactMissing(t *testing.T) {
	ds := newTestDataSource(t)
	for _, id := range []string{"1", "abc", "", "-3"} {
		c, err := ds.GetContact(context.Background(), id, model.AllGroups)
		assert.NoError(t, err, id)
		assert.Nil(t, c, id)
	}
}

func TestGetContactsKeywordAndGroups(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataSource(t)

	for _, given := range []string{"bob", "Alice", "charlie"} {
		_, err := ds.CreateContact(ctx, decode(t, map[string]any{
			"name":   map[string]any{"givenName": given},
			"phones": []any{map[string]any{"number": "1"}},
		}))
		require.NoError(t, err)
	}

	all, err := ds.GetContacts(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, c := range all {
		assert.False(t, c.PropertiesFetched)
		assert.False(t, c.ThumbnailFetched)
		assert.False(t, c.PhotoFetched)
		assert.Nil(t, c.Phones)
	}

	found, err := ds.GetContacts(ctx, "LIC", model.GroupPhones)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Alice", found[0].DisplayName)
	assert.Len(t, found[0].Phones, 1)
}

func TestMalformedRowDegradesGroup(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataSource(t)

	id, err := ds.CreateContact(ctx, decode(t, map[string]any{
		"name":   map[string]any{"givenName": "Ann"},
		"phones": []any{map[string]any{"number": "555"}},
		"events": []any{map[string]any{"label": "birthday", "month": 4, "day": 1}},
	}))
	require.NoError(t, err)

	_, err = ds.db.Exec(`UPDATE data SET data1 = 'not a date' WHERE mimetype = ?`, model.MimeTypeEvent)
	require.NoError(t, err)

	c, err := ds.GetContact(ctx, id, model.AllProperties)
	require.NoError(t, err)
	assert.NotNil(t, c.Events)
	assert.Empty(t, c.Events)
	assert.Len(t, c.Phones, 1)
}

func TestPhotoAndThumbnail(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataSource(t)

	photo := []byte("not an image but stored anyway")
	id, err := ds.CreateContact(ctx, decode(t, map[string]any{
		"name":  map[string]any{"givenName": "Ann"},
		"photo": photo,
	}))
	require.NoError(t, err)

	c, err := ds.GetContact(ctx, id, model.GroupThumbnail|model.GroupPhoto)
	require.NoError(t, err)
	assert.Equal(t, photo, c.Photo)
	assert.Equal(t, photo, c.Thumbnail)
	assert.True(t, c.ThumbnailFetched)
	assert.True(t, c.PhotoFetched)
	assert.False(t, c.PropertiesFetched)

	require.NoError(t, ds.UpdateContact(ctx, id, decode(t, map[string]any{"thumbnail": []byte{1, 2, 3}})))
	c, err = ds.GetContact(ctx, id, model.GroupThumbnail|model.GroupPhoto)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, c.Thumbnail)
	assert.Nil(t, c.Photo)
}

func TestBatchBackReferences(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataSource(t)

	b := &Batch{}
	raw := b.Add(NewInsert("raw_contacts"))
	b.Add(NewInsert("data").
		WithValue("mimetype", model.MimeTypeNote).
		WithValue("data1", "n").
		WithValueBackReference("raw_contact_id", raw))
	results, err := b.Apply(ctx, ds.db, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var rawID int64
	require.NoError(t, ds.db.QueryRow(`SELECT raw_contact_id FROM data WHERE _id = ?`, results[1].ID).Scan(&rawID))
	assert.Equal(t, results[0].ID, rawID)
}

func TestBatchRollback(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataSource(t)

	b := &Batch{}
	b.Add(NewInsert("raw_contacts"))
	b.Add(NewInsert("data").WithValueBackReference("raw_contact_id", 5))
	_, err := b.Apply(ctx, ds.db, nil)
	require.Error(t, err)

	var n int
	require.NoError(t, ds.db.QueryRow(`SELECT COUNT(*) FROM raw_contacts`).Scan(&n))
	assert.Zero(t, n)
}

func TestKindAndVersion(t *testing.T) {
	ds := newTestDataSource(t)
	assert.Equal(t, Kind, ds.Kind())
	assert.Contains(t, ds.Version(), "schema 1")
}
