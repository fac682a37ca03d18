package graph

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/sjzar/contactsbridge/internal/errors"
	"github.com/sjzar/contactsbridge/internal/model"
)

func decode(t *testing.T, m map[string]any) *model.ContactPatch {
	t.Helper()
	p, err := model.DecodePatch(m)
	require.NoError(t, err)
	return p
}

func TestCreateAndReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ds, err := New(dir)
	require.NoError(t, err)

	photo := []byte(strings.Repeat("photo", 100))
	id, err := ds.CreateContact(ctx, decode(t, map[string]any{
		"name":         map[string]any{"givenName": "Ann"},
		"phones":       []any{map[string]any{"number": "555-1234", "label": "mobile"}},
		"emails":       []any{map[string]any{"email": "ann@example.com", "label": "custom", "customLabel": "School"}},
		"organization": map[string]any{"name": "Acme"},
		"events": []any{
			map[string]any{"label": "anniversary", "year": 2001, "month": 6, "day": 30},
			map[string]any{"label": "birthday", "month": 4, "day": 1},
		},
		"photo": photo,
	}))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(id, IdentifierSuffix))

	c, err := ds.GetContact(ctx, id, model.AllGroups)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Ann", c.Name.GivenName)
	require.Len(t, c.Phones, 1)
	assert.Equal(t, "5551234", c.Phones[0].NormalizedNumber)
	assert.Equal(t, model.LabelMobile, c.Phones[0].Label)
	require.Len(t, c.Emails, 1)
	assert.Equal(t, "School", c.Emails[0].CustomLabel)
	require.Len(t, c.Events, 2)
	assert.Equal(t, model.LabelBirthday, c.Events[0].Label)
	assert.Equal(t, model.LabelAnniversary, c.Events[1].Label)
	assert.Equal(t, photo, c.Photo)

	_, err = os.Stat(filepath.Join(dir, SnapshotFile))
	require.NoError(t, err)

	// 从快照重新打开
	reopened, err := New(dir)
	require.NoError(t, err)
	c2, err := reopened.GetContact(ctx, id, model.AllGroups)
	require.NoError(t, err)
	require.NotNil(t, c2)
	assert.Equal(t, c.ToMap(), c2.ToMap())
}

func TestUpdateOnlyTouchesPresentFields(t *testing.T) {
	ctx := context.Background()
	ds, err := New(t.TempDir())
	require.NoError(t, err)

	id, err := ds.CreateContact(ctx, decode(t, map[string]any{
		"name":   map[string]any{"givenName": "Ann", "familyName": "Lee"},
		"phones": []any{map[string]any{"number": "555-1234"}},
	}))
	require.NoError(t, err)

	require.NoError(t, ds.UpdateContact(ctx, id, decode(t, map[string]any{"id": id, "note": "hello"})))
	c, err := ds.GetContact(ctx, id, model.AllProperties)
	require.NoError(t, err)
	assert.Equal(t, []model.Note{{Note: "hello"}}, c.Notes)
	require.Len(t, c.Phones, 1)
	assert.Equal(t, "555-1234", c.Phones[0].Number)
	assert.Equal(t, "Ann Lee", c.DisplayName)

	require.NoError(t, ds.UpdateContact(ctx, id, decode(t, map[string]any{
		"name":      map[string]any{"familyName": "Park"},
		"isStarred": true,
	})))
	c, err = ds.GetContact(ctx, id, model.GroupName)
	require.NoError(t, err)
	assert.Equal(t, "Ann Park", c.DisplayName)
	assert.True(t, c.IsStarred)

	err = ds.UpdateContact(ctx, "missing:ABPerson", decode(t, map[string]any{"note": "x"}))
	assert.True(t, errors.Is(err, errors.CodeContactNotFound))
}

func TestDeleteTwice(t *testing.T) {
	ctx := context.Background()
	ds, err := New(t.TempDir())
	require.NoError(t, err)

	id, err := ds.CreateContact(ctx, decode(t, map[string]any{"name": map[string]any{"givenName": "Ann"}}))
	require.NoError(t, err)

	require.NoError(t, ds.DeleteContact(ctx, id))
	c, err := ds.GetContact(ctx, id, model.AllGroups)
	require.NoError(t, err)
	assert.Nil(t, c)

	err = ds.DeleteContact(ctx, id)
	assert.True(t, errors.Is(err, errors.CodeContactNotFound))
}

func TestGetContactsKeyword(t *testing.T) {
	ctx := context.Background()
	ds, err := New(t.TempDir())
	require.NoError(t, err)

	for _, given := range []string{"bob", "Alice", "charlie"} {
		_, err := ds.CreateContact(ctx, decode(t, map[string]any{"name": map[string]any{"givenName": given}}))
		require.NoError(t, err)
	}
	_, err = ds.CreateContact(ctx, decode(t, map[string]any{"organization": map[string]any{"name": "Acme"}}))
	require.NoError(t, err)

	all, err := ds.GetContacts(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	for _, c := range all {
		assert.False(t, c.PropertiesFetched)
		assert.Nil(t, c.Phones)
	}

	found, err := ds.GetContacts(ctx, "ACM", model.GroupOrganizations)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Acme", found[0].DisplayName)
	assert.Equal(t, []model.Organization{{Name: "Acme"}}, found[0].Organizations)
}

func TestSnapshotWriteFailureAborts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ds, err := New(dir)
	require.NoError(t, err)

	// 快照路径被目录占用，写入必然失败
	require.NoError(t, os.Mkdir(ds.snapshotPath, 0o755))

	_, err = ds.CreateContact(ctx, decode(t, map[string]any{"name": map[string]any{"givenName": "Ann"}}))
	require.Error(t, err)

	all, err := ds.GetContacts(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SnapshotFile), []byte("garbage"), 0o600))
	_, err := New(dir)
	assert.Error(t, err)
}

func TestCorruptImageDegradesGroup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	thumb := []byte(strings.Repeat("thumb", 20))
	packed, err := deflate(thumb)
	require.NoError(t, err)
	snap := snapshot{
		Version: SnapshotVersion,
		Contacts: []*model.GraphContact{
			{Identifier: "A" + IdentifierSuffix, GivenName: "Alice", ThumbnailImageData: packed},
			{
				Identifier:   "B" + IdentifierSuffix,
				GivenName:    "Bob",
				PhoneNumbers: []model.GraphLabeledValue{{Identifier: "p1", Label: model.GraphLabelMobile, Value: "555-0100"}},
				Note:         "gym",
				ImageData:    []byte("not-lz4"),
			},
		},
	}
	data, err := plist.Marshal(&snap, plist.BinaryFormat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, SnapshotFile), data, 0o600))

	ds, err := New(dir)
	require.NoError(t, err)
	defer ds.Close()

	all, err := ds.GetContacts(ctx, "", model.AllGroups)
	require.NoError(t, err)
	require.Len(t, all, 2)

	alice, err := ds.GetContact(ctx, "A"+IdentifierSuffix, model.AllGroups)
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, thumb, alice.Thumbnail)

	bob, err := ds.GetContact(ctx, "B"+IdentifierSuffix, model.AllGroups)
	require.NoError(t, err)
	require.NotNil(t, bob)
	assert.Equal(t, "Bob", bob.DisplayName)
	require.Len(t, bob.Phones, 1)
	assert.Equal(t, "5550100", bob.Phones[0].NormalizedNumber)
	assert.Equal(t, []model.Note{{Note: "gym"}}, bob.Notes)
	assert.Empty(t, bob.Photo)
	assert.True(t, bob.PhotoFetched)
}

func TestExternalRewriteReloads(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	writer, err := New(dir)
	require.NoError(t, err)
	reader, err := New(dir)
	require.NoError(t, err)
	defer reader.Close()

	changed := make(chan struct{}, 4)
	require.NoError(t, reader.SetCallback("contacts", func(event fsnotify.Event) error {
		changed <- struct{}{}
		return nil
	}))

	id, err := writer.CreateContact(ctx, decode(t, map[string]any{"name": map[string]any{"givenName": "Ann"}}))
	require.NoError(t, err)

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback not invoked")
	}
	c, err := reader.GetContact(ctx, id, 0)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Ann", c.DisplayName)
}
