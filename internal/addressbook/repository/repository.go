package repository

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sjzar/contactsbridge/internal/addressbook/datasource"
	"github.com/sjzar/contactsbridge/internal/errors"
	"github.com/sjzar/contactsbridge/internal/model"
)

// Repository 联系人查询入口，不缓存任何记录
type Repository struct {
	ds  datasource.DataSource
	tag language.Tag
}

// New 创建一个新的 Repository，locale 决定排序规则
func New(ds datasource.DataSource, locale string) *Repository {
	tag, err := language.Parse(locale)
	if err != nil {
		log.Warn().Err(err).Msgf("无法识别的 locale %q，使用 und", locale)
		tag = language.Und
	}
	return &Repository{ds: ds, tag: tag}
}

func (r *Repository) DataSource() datasource.DataSource {
	return r.ds
}

func (r *Repository) Locale() language.Tag {
	return r.tag
}

// ListAll 返回全部联系人，sorted 为 false 时保持存储原生顺序
func (r *Repository) ListAll(ctx context.Context, groups model.PropertyGroups, sorted bool) ([]*model.Contact, error) {
	contacts, err := r.ds.GetContacts(ctx, "", groups)
	if err != nil {
		return nil, errors.FetchFailed(err)
	}
	if sorted {
		r.Sort(contacts)
	}
	return contacts, nil
}

// GetByID 不存在时返回 nil, nil
func (r *Repository) GetByID(ctx context.Context, id string, groups model.PropertyGroups) (*model.Contact, error) {
	contact, err := r.ds.GetContact(ctx, id, groups)
	if err != nil {
		return nil, errors.FetchFailed(err)
	}
	return contact, nil
}

// Search 显示名子串匹配，空查询返回全部
func (r *Repository) Search(ctx context.Context, query string, groups model.PropertyGroups, sorted bool) ([]*model.Contact, error) {
	contacts, err := r.ds.GetContacts(ctx, query, groups)
	if err != nil {
		return nil, errors.SearchFailed(err)
	}
	if sorted {
		r.Sort(contacts)
	}
	return contacts, nil
}

// Create 写入后按新 id 重新读取完整记录
func (r *Repository) Create(ctx context.Context, patch *model.ContactPatch) (*model.Contact, error) {
	id, err := r.ds.CreateContact(ctx, patch)
	if err != nil {
		return nil, errors.CreateFailed(err)
	}
	contact, err := r.ds.GetContact(ctx, id, model.AllGroups)
	if err != nil {
		return nil, errors.CreateFailed(err)
	}
	if contact == nil {
		return nil, errors.CreateFailed(errors.ContactNotFound(id))
	}
	return contact, nil
}

func (r *Repository) Update(ctx context.Context, id string, patch *model.ContactPatch) (*model.Contact, error) {
	if err := r.ds.UpdateContact(ctx, id, patch); err != nil {
		return nil, errors.UpdateFailed(err)
	}
	contact, err := r.ds.GetContact(ctx, id, model.AllGroups)
	if err != nil {
		return nil, errors.UpdateFailed(err)
	}
	if contact == nil {
		return nil, errors.ContactNotFound(id)
	}
	return contact, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.ds.DeleteContact(ctx, id); err != nil {
		return errors.DeleteFailed(err)
	}
	return nil
}

// Sort 按显示名做区域相关、不区分大小写的升序排序
// collate.Collator 不是并发安全的，每次排序单独创建
func (r *Repository) Sort(contacts []*model.Contact) {
	c := collate.New(r.tag, collate.IgnoreCase)
	sort.SliceStable(contacts, func(i, j int) bool {
		return c.CompareString(contacts[i].DisplayName, contacts[j].DisplayName) < 0
	})
}

// Close 实现 Repository 接口的 Close 方法
func (r *Repository) Close() error {
	return r.ds.Close()
}
