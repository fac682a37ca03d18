package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"github.com/sjzar/contactsbridge/internal/errors"
	"github.com/sjzar/contactsbridge/internal/model"
)

// IdentifierSuffix 新建联系人标识符后缀
const IdentifierSuffix = ":ABPerson"

// SaveRequest 一次保存请求中暂存的新增、修改和删除
type SaveRequest struct {
	adds    []*model.GraphContact
	updates []*model.GraphContact
	deletes []string
}

func (r *SaveRequest) AddContact(c *model.GraphContact) {
	r.adds = append(r.adds, c)
}

func (r *SaveRequest) UpdateContact(c *model.GraphContact) {
	r.updates = append(r.updates, c)
}

func (r *SaveRequest) DeleteContact(id string) {
	r.deletes = append(r.deletes, id)
}

// Execute 在一个写事务中应用请求，快照写入成功后才提交
func (ds *DataSource) Execute(ctx context.Context, req *SaveRequest) error {
	txn := ds.memdb().Txn(true)
	defer txn.Abort()

	for _, c := range req.adds {
		c.SortName = c.FullName()
		if err := txn.Insert(tableContact, c); err != nil {
			return fmt.Errorf("新增联系人 %s 失败: %w", c.Identifier, err)
		}
	}
	for _, c := range req.updates {
		existing, err := txn.First(tableContact, indexID, c.Identifier)
		if err != nil {
			return err
		}
		if existing == nil {
			return errors.ContactNotFound(c.Identifier)
		}
		c.SortName = c.FullName()
		if err := txn.Insert(tableContact, c); err != nil {
			return fmt.Errorf("修改联系人 %s 失败: %w", c.Identifier, err)
		}
	}
	for _, id := range req.deletes {
		existing, err := txn.First(tableContact, indexID, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return errors.ContactNotFound(id)
		}
		if err := txn.Delete(tableContact, existing); err != nil {
			return fmt.Errorf("删除联系人 %s 失败: %w", id, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	contacts, err := all(txn)
	if err != nil {
		return err
	}
	if err := ds.persist(contacts); err != nil {
		return fmt.Errorf("写入快照失败: %w", err)
	}
	txn.Commit()
	return nil
}

func all(txn *memdb.Txn) ([]*model.GraphContact, error) {
	it, err := txn.Get(tableContact, indexID)
	if err != nil {
		return nil, err
	}
	contacts := make([]*model.GraphContact, 0)
	for obj := it.Next(); obj != nil; obj = it.Next() {
		contacts = append(contacts, obj.(*model.GraphContact))
	}
	return contacts, nil
}

func (ds *DataSource) CreateContact(ctx context.Context, patch *model.ContactPatch) (string, error) {
	gc := &model.GraphContact{Identifier: NewIdentifier()}
	applyPatch(gc, patch)

	req := &SaveRequest{}
	req.AddContact(gc)
	if err := ds.Execute(ctx, req); err != nil {
		return "", err
	}
	return gc.Identifier, nil
}

// UpdateContact 在副本上修改 patch 中出现的字段，存储中的对象保持不变
func (ds *DataSource) UpdateContact(ctx context.Context, id string, patch *model.ContactPatch) error {
	existing, err := ds.lookup(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.ContactNotFound(id)
	}
	gc := existing.Clone()
	applyPatch(gc, patch)

	req := &SaveRequest{}
	req.UpdateContact(gc)
	return ds.Execute(ctx, req)
}

func (ds *DataSource) DeleteContact(ctx context.Context, id string) error {
	req := &SaveRequest{}
	req.DeleteContact(id)
	return ds.Execute(ctx, req)
}

func NewIdentifier() string {
	return strings.ToUpper(uuid.New().String()) + IdentifierSuffix
}

func newValueID() string {
	return strings.ToUpper(uuid.New().String())
}

// applyPatch 将 patch 中出现的字段写入对象，组织和备注只保留一份
func applyPatch(gc *model.GraphContact, patch *model.ContactPatch) {
	if patch.IsStarred != nil {
		gc.Starred = *patch.IsStarred
	}
	if patch.Name != nil {
		name := gc.Name()
		patch.Name.ApplyTo(&name)
		gc.SetName(name)
	}
	if patch.Phones != nil {
		gc.PhoneNumbers = make([]model.GraphLabeledValue, 0, len(*patch.Phones))
		for _, p := range patch.PhoneList() {
			gc.PhoneNumbers = append(gc.PhoneNumbers, model.GraphLabeledValue{
				Identifier: newValueID(),
				Label:      model.LabelToGraphLabel(model.CategoryPhone, p.Label, p.CustomLabel),
				Value:      p.Number,
			})
		}
	}
	if patch.Emails != nil {
		gc.EmailAddresses = make([]model.GraphLabeledValue, 0, len(*patch.Emails))
		for _, e := range patch.EmailList() {
			gc.EmailAddresses = append(gc.EmailAddresses, model.GraphLabeledValue{
				Identifier: newValueID(),
				Label:      model.LabelToGraphLabel(model.CategoryEmail, e.Label, e.CustomLabel),
				Value:      e.Email,
			})
		}
	}
	if patch.Addresses != nil {
		gc.PostalAddresses = make([]model.GraphPostalAddress, 0, len(*patch.Addresses))
		for _, a := range patch.AddressList() {
			gc.PostalAddresses = append(gc.PostalAddresses, model.GraphPostalAddress{
				Identifier: newValueID(),
				Label:      model.LabelToGraphLabel(model.CategoryAddress, a.Label, a.CustomLabel),
				Street:     a.Street,
				City:       a.City,
				State:      a.State,
				PostalCode: a.PostalCode,
				Country:    a.Country,
			})
		}
	}
	if patch.HasOrganizations() {
		gc.OrganizationName, gc.JobTitle, gc.DepartmentName = "", "", ""
		if orgs := patch.OrganizationList(); len(orgs) > 0 {
			gc.OrganizationName = orgs[0].Name
			gc.JobTitle = orgs[0].JobTitle
			gc.DepartmentName = orgs[0].Department
		}
	}
	if patch.Websites != nil {
		gc.URLAddresses = make([]model.GraphLabeledValue, 0, len(*patch.Websites))
		for _, w := range patch.WebsiteList() {
			gc.URLAddresses = append(gc.URLAddresses, model.GraphLabeledValue{
				Identifier: newValueID(),
				Label:      model.LabelToGraphLabel(model.CategoryWebsite, w.Label, w.CustomLabel),
				Value:      w.URL,
			})
		}
	}
	if patch.HasNotes() {
		notes := patch.NoteList()
		texts := make([]string, 0, len(notes))
		for _, n := range notes {
			texts = append(texts, n.Note)
		}
		gc.Note = strings.Join(texts, "\n")
	}
	if patch.Events != nil {
		gc.Birthday = nil
		gc.Dates = make([]model.GraphLabeledDate, 0, len(*patch.Events))
		for _, e := range patch.EventList() {
			date := model.GraphDateComponents{Month: e.Month, Day: e.Day}
			if e.Year != nil {
				date.Year = *e.Year
			}
			// 第一个 birthday 写入独立的生日字段
			if raw, _ := model.ResolveLabel(model.CategoryEvent, e.Label, e.CustomLabel); raw == model.EventTypeBirthday && gc.Birthday == nil {
				gc.Birthday = &date
				continue
			}
			gc.Dates = append(gc.Dates, model.GraphLabeledDate{
				Identifier: newValueID(),
				Label:      model.LabelToGraphLabel(model.CategoryEvent, e.Label, e.CustomLabel),
				Value:      date,
			})
		}
	}
	if thumbnail, photo, touched := patch.Thumbnails(); touched {
		gc.ThumbnailImageData = thumbnail
		gc.ImageData = photo
	}
}
