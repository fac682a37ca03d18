package channel

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sjzar/contactsbridge/internal/addressbook/repository"
	"github.com/sjzar/contactsbridge/internal/errors"
	"github.com/sjzar/contactsbridge/internal/model"
)

// 通道方法名
const (
	MethodGetPlatformVersion  = "getPlatformVersion"
	MethodRequestPermission   = "requestPermission"
	MethodGetPermissionStatus = "getPermissionStatus"
	MethodGetAllContacts      = "getAllContacts"
	MethodGetContact          = "getContact"
	MethodSearchContacts      = "searchContacts"
	MethodCreateContact       = "createContact"
	MethodUpdateContact       = "updateContact"
	MethodDeleteContact       = "deleteContact"
)

const (
	accessNone = iota
	accessRead
	accessWrite
)

// call 参数校验通过后的一次调用，run 在工作协程中执行
type call struct {
	method string
	access int
	store  bool
	wrap   func(error) *errors.Error
	run    func(ctx context.Context, c *Channel, repo *repository.Repository) (interface{}, error)
}

type parser func(args map[string]interface{}) (*call, error)

var methods = map[string]parser{
	MethodGetPlatformVersion:  parsePlatformVersion,
	MethodRequestPermission:   parseRequestPermission,
	MethodGetPermissionStatus: parsePermissionStatus,
	MethodGetAllContacts:      parseGetAllContacts,
	MethodGetContact:          parseGetContact,
	MethodSearchContacts:      parseSearchContacts,
	MethodCreateContact:       parseCreateContact,
	MethodUpdateContact:       parseUpdateContact,
	MethodDeleteContact:       parseDeleteContact,
}

// Methods 返回支持的方法名，按字母序
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parse 同步校验参数，不做任何 I/O
func parse(method string, arguments interface{}) (*call, error) {
	p, ok := methods[method]
	if !ok {
		return nil, errors.NotImplemented(method)
	}

	var args map[string]interface{}
	switch v := arguments.(type) {
	case nil:
	case map[string]interface{}:
		args = v
	default:
		return nil, errors.InvalidArguments("arguments must be a map, got %T", arguments)
	}

	c, err := p(args)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.InvalidArguments("invalid arguments for %s: %v", method, err)
	}
	c.method = method
	return c, nil
}

func internal(err error) *errors.Error {
	return errors.Wrap(err, errors.CodeInternal, "unexpected failure")
}

func parsePlatformVersion(args map[string]interface{}) (*call, error) {
	return &call{
		store: true,
		wrap:  internal,
		run: func(ctx context.Context, c *Channel, repo *repository.Repository) (interface{}, error) {
			ds := repo.DataSource()
			return fmt.Sprintf("%s %s", ds.Kind(), ds.Version()), nil
		},
	}, nil
}

func parseRequestPermission(args map[string]interface{}) (*call, error) {
	var a struct {
		ReadOnly bool `mapstructure:"readOnly"`
	}
	if err := model.DecodeArgs(args, &a); err != nil {
		return nil, err
	}
	return &call{
		wrap: errors.PermissionFailed,
		run: func(ctx context.Context, c *Channel, _ *repository.Repository) (interface{}, error) {
			return c.perm.Request(ctx, a.ReadOnly)
		},
	}, nil
}

func parsePermissionStatus(args map[string]interface{}) (*call, error) {
	return &call{
		wrap: errors.PermissionFailed,
		run: func(ctx context.Context, c *Channel, _ *repository.Repository) (interface{}, error) {
			return c.perm.Status(), nil
		},
	}, nil
}

// fetchArgs 读取类方法的公共参数
// properties 非空时代替 withProperties 指定需要的属性组
type fetchArgs struct {
	WithProperties *bool    `mapstructure:"withProperties"`
	WithThumbnail  bool     `mapstructure:"withThumbnail"`
	WithPhoto      bool     `mapstructure:"withPhoto"`
	Sorted         *bool    `mapstructure:"sorted"`
	Properties     []string `mapstructure:"properties"`
}

func (a *fetchArgs) groups(withProperties bool) (model.PropertyGroups, error) {
	if a.WithProperties != nil {
		withProperties = *a.WithProperties
	}
	g := model.Groups(withProperties, a.WithThumbnail, a.WithPhoto)
	if len(a.Properties) > 0 {
		pg, err := model.ParseGroups(a.Properties)
		if err != nil {
			return 0, err
		}
		g = g&^model.AllProperties | pg
	}
	return g, nil
}

func (a *fetchArgs) sorted() bool {
	return a.Sorted == nil || *a.Sorted
}

func toMaps(contacts []*model.Contact) []map[string]interface{} {
	ret := make([]map[string]interface{}, 0, len(contacts))
	for _, c := range contacts {
		ret = append(ret, c.ToMap())
	}
	return ret
}

func parseGetAllContacts(args map[string]interface{}) (*call, error) {
	var a fetchArgs
	if err := model.DecodeArgs(args, &a); err != nil {
		return nil, err
	}
	groups, err := a.groups(false)
	if err != nil {
		return nil, err
	}
	sorted := a.sorted()
	return &call{
		access: accessRead,
		store:  true,
		wrap:   errors.FetchFailed,
		run: func(ctx context.Context, c *Channel, repo *repository.Repository) (interface{}, error) {
			contacts, err := repo.ListAll(ctx, groups, sorted)
			if err != nil {
				return nil, err
			}
			return toMaps(contacts), nil
		},
	}, nil
}

// requireString 读取必填字符串参数，数字会被转为字符串
func requireString(args map[string]interface{}, name string, allowEmpty bool) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", errors.MissingArgument(name)
	}
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int, int64:
		s = fmt.Sprint(t)
	default:
		return "", errors.InvalidArguments("%s must be a string, got %T", name, v)
	}
	if s == "" && !allowEmpty {
		return "", errors.InvalidArguments("%s must not be empty", name)
	}
	return s, nil
}

func parseGetContact(args map[string]interface{}) (*call, error) {
	id, err := requireString(args, "id", false)
	if err != nil {
		return nil, err
	}
	var a fetchArgs
	if err := model.DecodeArgs(args, &a); err != nil {
		return nil, err
	}
	groups, err := a.groups(true)
	if err != nil {
		return nil, err
	}
	return &call{
		access: accessRead,
		store:  true,
		wrap:   errors.FetchFailed,
		run: func(ctx context.Context, c *Channel, repo *repository.Repository) (interface{}, error) {
			contact, err := repo.GetByID(ctx, id, groups)
			if err != nil || contact == nil {
				return nil, err
			}
			return contact.ToMap(), nil
		},
	}, nil
}

func parseSearchContacts(args map[string]interface{}) (*call, error) {
	v, ok := args["query"]
	if !ok || v == nil {
		return nil, errors.MissingArgument("query")
	}
	query, ok := v.(string)
	if !ok {
		return nil, errors.InvalidArguments("query must be a string, got %T", v)
	}
	var a fetchArgs
	if err := model.DecodeArgs(args, &a); err != nil {
		return nil, err
	}
	groups, err := a.groups(false)
	if err != nil {
		return nil, err
	}
	sorted := a.sorted()
	return &call{
		access: accessRead,
		store:  true,
		wrap:   errors.SearchFailed,
		run: func(ctx context.Context, c *Channel, repo *repository.Repository) (interface{}, error) {
			contacts, err := repo.Search(ctx, query, groups, sorted)
			if err != nil {
				return nil, err
			}
			return toMaps(contacts), nil
		},
	}, nil
}

func decodeContact(args map[string]interface{}) (*model.ContactPatch, error) {
	v, ok := args["contact"]
	if !ok || v == nil {
		return nil, errors.MissingArgument("contact")
	}
	patch, err := model.DecodePatch(v)
	if err != nil {
		return nil, errors.InvalidArguments("invalid contact: %v", err)
	}
	return patch, nil
}

func parseCreateContact(args map[string]interface{}) (*call, error) {
	patch, err := decodeContact(args)
	if err != nil {
		return nil, err
	}
	return &call{
		access: accessWrite,
		store:  true,
		wrap:   errors.CreateFailed,
		run: func(ctx context.Context, c *Channel, repo *repository.Repository) (interface{}, error) {
			contact, err := repo.Create(ctx, patch)
			if err != nil {
				return nil, err
			}
			return contact.ToMap(), nil
		},
	}, nil
}

func parseUpdateContact(args map[string]interface{}) (*call, error) {
	patch, err := decodeContact(args)
	if err != nil {
		return nil, err
	}
	id := patch.ContactID()
	if id == "" {
		return nil, errors.InvalidArguments("contact id is required for update")
	}
	return &call{
		access: accessWrite,
		store:  true,
		wrap:   errors.UpdateFailed,
		run: func(ctx context.Context, c *Channel, repo *repository.Repository) (interface{}, error) {
			contact, err := repo.Update(ctx, id, patch)
			if err != nil {
				return nil, err
			}
			return contact.ToMap(), nil
		},
	}, nil
}

func parseDeleteContact(args map[string]interface{}) (*call, error) {
	id, err := requireString(args, "id", false)
	if err != nil {
		return nil, err
	}
	return &call{
		access: accessWrite,
		store:  true,
		wrap:   errors.DeleteFailed,
		run: func(ctx context.Context, c *Channel, repo *repository.Repository) (interface{}, error) {
			return nil, repo.Delete(ctx, id)
		},
	}, nil
}
