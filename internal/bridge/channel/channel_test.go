package channel

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjzar/contactsbridge/internal/addressbook/datasource"
	"github.com/sjzar/contactsbridge/internal/addressbook/repository"
	"github.com/sjzar/contactsbridge/internal/bridge/database"
	"github.com/sjzar/contactsbridge/internal/bridge/permission"
	"github.com/sjzar/contactsbridge/internal/errors"
)

type testConf struct {
	backend string
	dataDir string
}

func (c *testConf) GetBackend() string { return c.backend }
func (c *testConf) GetDataDir() string { return c.dataDir }
func (c *testConf) GetLocale() string  { return "en" }
func (c *testConf) GetWatch() bool     { return false }
func (c *testConf) GetWorkers() int    { return 2 }

func newTestChannel(t *testing.T, backend, status string) (*Channel, *database.Service) {
	t.Helper()
	conf := &testConf{backend: backend, dataDir: t.TempDir()}
	db := database.NewService(conf)
	require.NoError(t, db.Start())
	t.Cleanup(func() { db.Stop() })

	perm := permission.New(backend, status, nil, permission.PolicyPrompter(permission.AnswerAllow))
	c := New(conf, db, perm)
	require.NoError(t, c.Start())
	t.Cleanup(func() { c.Stop() })
	return c, db
}

func invoke(t *testing.T, c *Channel, method string, args map[string]interface{}) (interface{}, error) {
	t.Helper()
	var arguments interface{}
	if args != nil {
		arguments = args
	}
	return c.Invoke(context.Background(), method, arguments)
}

func TestUnknownMethods(t *testing.T) {
	c, _ := newTestChannel(t, datasource.KindProvider, permission.StatusGranted)
	for _, method := range []string{"openExternalView", "openExternalInsert", "ringtone"} {
		_, err := invoke(t, c, method, nil)
		assert.Equal(t, errors.CodeNotImplemented, errors.CodeOf(err), method)
	}
}

func TestArgumentValidation(t *testing.T) {
	c, _ := newTestChannel(t, datasource.KindProvider, permission.StatusGranted)

	tests := []struct {
		name   string
		method string
		args   interface{}
	}{
		{"arguments not a map", MethodGetAllContacts, []interface{}{1}},
		{"missing id", MethodGetContact, map[string]interface{}{}},
		{"empty id", MethodDeleteContact, map[string]interface{}{"id": " "}},
		{"missing query", MethodSearchContacts, map[string]interface{}{}},
		{"query not a string", MethodSearchContacts, map[string]interface{}{"query": true}},
		{"missing contact", MethodCreateContact, nil},
		{"contact not a map", MethodCreateContact, map[string]interface{}{"contact": "Ann"}},
		{"update without id", MethodUpdateContact, map[string]interface{}{"contact": map[string]interface{}{"note": "x"}}},
		{"bad event", MethodCreateContact, map[string]interface{}{"contact": map[string]interface{}{
			"events": []interface{}{map[string]interface{}{"label": "birthday", "month": 13, "day": 1}},
		}}},
		{"unknown property group", MethodGetAllContacts, map[string]interface{}{"properties": []interface{}{"ringtone"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Invoke(context.Background(), tt.method, tt.args)
			assert.Equal(t, errors.CodeInvalidArguments, errors.CodeOf(err))
		})
	}
}

func TestRequireStringNumbers(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"string", " 42 ", "42"},
		{"small float", float64(7), "7"},
		{"large float", float64(1000000), "1000000"},
		{"int", 12, "12"},
		{"int64", int64(99), "99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := requireString(map[string]interface{}{"id": tt.value}, "id", false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMethods(t *testing.T) {
	names := Methods()
	assert.Len(t, names, 9)
	assert.Equal(t, MethodCreateContact, names[0])
	assert.Contains(t, names, MethodGetPlatformVersion)
	assert.NotContains(t, names, "openExternalView")
}

func TestPermissionChecks(t *testing.T) {
	c, _ := newTestChannel(t, datasource.KindProvider, permission.StatusDenied)

	_, err := invoke(t, c, MethodGetAllContacts, nil)
	assert.Equal(t, errors.CodePermissionDenied, errors.CodeOf(err))

	status, err := invoke(t, c, MethodGetPermissionStatus, nil)
	require.NoError(t, err)
	assert.Equal(t, permission.StatusDenied, status)

	status, err = invoke(t, c, MethodRequestPermission, map[string]interface{}{"readOnly": true})
	require.NoError(t, err)
	assert.Equal(t, permission.StatusGranted, status)

	_, err = invoke(t, c, MethodGetAllContacts, nil)
	assert.NoError(t, err)

	_, err = invoke(t, c, MethodCreateContact, map[string]interface{}{"contact": map[string]interface{}{"note": "x"}})
	assert.Equal(t, errors.CodePermissionDenied, errors.CodeOf(err))
}

func TestStoreNotOpened(t *testing.T) {
	c, db := newTestChannel(t, datasource.KindProvider, permission.StatusGranted)
	require.NoError(t, db.Stop())

	_, err := invoke(t, c, MethodGetAllContacts, nil)
	assert.Equal(t, errors.CodeNoContext, errors.CodeOf(err))

	// 权限查询不依赖存储
	_, err = invoke(t, c, MethodGetPermissionStatus, nil)
	assert.NoError(t, err)
}

func TestNotStarted(t *testing.T) {
	c, _ := newTestChannel(t, datasource.KindProvider, permission.StatusGranted)
	require.NoError(t, c.Stop())

	_, err := invoke(t, c, MethodGetPermissionStatus, nil)
	assert.Equal(t, errors.CodeNoContext, errors.CodeOf(err))
}

func TestContactLifecycle(t *testing.T) {
	for _, backend := range []string{datasource.KindProvider, datasource.KindGraph} {
		t.Run(backend, func(t *testing.T) {
			status := permission.StatusGranted
			if backend == datasource.KindGraph {
				status = permission.StatusAuthorized
			}
			c, _ := newTestChannel(t, backend, status)

			version, err := invoke(t, c, MethodGetPlatformVersion, nil)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(version.(string), backend+" "), version)

			created, err := invoke(t, c, MethodCreateContact, map[string]interface{}{
				"contact": map[string]interface{}{
					"name":   map[string]interface{}{"givenName": "Ann"},
					"phones": []interface{}{map[string]interface{}{"number": "555-1234", "label": "mobile"}},
				},
			})
			require.NoError(t, err)
			record := created.(map[string]interface{})
			id := record["id"].(string)
			require.NotEmpty(t, id)
			assert.Equal(t, "Ann", record["displayName"])
			phones := record["phones"].([]interface{})
			require.Len(t, phones, 1)
			assert.Equal(t, "5551234", phones[0].(map[string]interface{})["normalizedNumber"])

			all, err := invoke(t, c, MethodGetAllContacts, nil)
			require.NoError(t, err)
			list := all.([]map[string]interface{})
			require.Len(t, list, 1)
			assert.Equal(t, false, list[0]["propertiesFetched"])
			assert.Equal(t, false, list[0]["thumbnailFetched"])
			assert.Equal(t, false, list[0]["photoFetched"])
			assert.NotContains(t, list[0], "phones")

			narrowed, err := invoke(t, c, MethodSearchContacts, map[string]interface{}{
				"query":      "an",
				"properties": []interface{}{"phones"},
			})
			require.NoError(t, err)
			list = narrowed.([]map[string]interface{})
			require.Len(t, list, 1)
			assert.Contains(t, list[0], "phones")
			assert.NotContains(t, list[0], "emails")

			updated, err := invoke(t, c, MethodUpdateContact, map[string]interface{}{
				"contact": map[string]interface{}{"id": id, "note": "met at conf"},
			})
			require.NoError(t, err)
			record = updated.(map[string]interface{})
			assert.Equal(t, "Ann", record["displayName"])
			assert.Len(t, record["phones"], 1)
			assert.Equal(t, "met at conf", record["notes"].([]interface{})[0].(map[string]interface{})["note"])

			res, err := invoke(t, c, MethodDeleteContact, map[string]interface{}{"id": id})
			require.NoError(t, err)
			assert.Nil(t, res)

			_, err = invoke(t, c, MethodDeleteContact, map[string]interface{}{"id": id})
			assert.Equal(t, errors.CodeContactNotFound, errors.CodeOf(err))

			got, err := invoke(t, c, MethodGetContact, map[string]interface{}{"id": id})
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestPanicRecovered(t *testing.T) {
	methods["explode"] = func(args map[string]interface{}) (*call, error) {
		return &call{
			wrap: errors.FetchFailed,
			run: func(ctx context.Context, c *Channel, _ *repository.Repository) (interface{}, error) {
				panic("boom")
			},
		}, nil
	}
	defer delete(methods, "explode")

	c, _ := newTestChannel(t, datasource.KindProvider, permission.StatusGranted)
	_, err := invoke(t, c, "explode", nil)
	assert.Equal(t, errors.CodeFetchError, errors.CodeOf(err))
	e, _ := errors.As(err)
	assert.Contains(t, e.Detail, "boom")

	// 工作协程仍然可用
	_, err = invoke(t, c, MethodGetPermissionStatus, nil)
	assert.NoError(t, err)
}

func TestCallRunsAfterCallerLeaves(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	methods["slow"] = func(args map[string]interface{}) (*call, error) {
		return &call{
			wrap: errors.FetchFailed,
			run: func(ctx context.Context, c *Channel, _ *repository.Repository) (interface{}, error) {
				<-release
				defer close(done)
				return nil, ctx.Err()
			},
		}, nil
	}
	defer delete(methods, "slow")

	c, _ := newTestChannel(t, datasource.KindProvider, permission.StatusGranted)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Invoke(ctx, "slow", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatched call did not run to completion")
	}
}

func TestHandleEnvelope(t *testing.T) {
	c, _ := newTestChannel(t, datasource.KindProvider, permission.StatusGranted)

	resp := c.Handle(context.Background(), &Request{ID: 7, Method: MethodGetContact, Arguments: map[string]interface{}{"id": "404"}})
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"result":null}`, string(b))

	resp = c.Handle(context.Background(), &Request{ID: "a", Method: "openExternalPick"})
	b, err = json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","error":{"code":"NOT_IMPLEMENTED","message":"method not implemented: openExternalPick","details":null}}`, string(b))

	var decoded Response
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, errors.CodeNotImplemented, errors.CodeOf(decoded.Err()))

	resp = c.Handle(context.Background(), &Request{})
	assert.Equal(t, errors.CodeInvalidArguments, resp.Error.Code)
}
