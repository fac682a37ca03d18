package graph

import (
	"context"
	"fmt"

	"github.com/sjzar/contactsbridge/internal/model"
)

// GetContacts 按标识符顺序遍历，返回显示名包含 keyword 的联系人
func (ds *DataSource) GetContacts(ctx context.Context, keyword string, groups model.PropertyGroups) ([]*model.Contact, error) {
	txn := ds.memdb().Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableContact, indexID)
	if err != nil {
		return nil, fmt.Errorf("遍历联系人失败: %w", err)
	}

	contacts := make([]*model.Contact, 0)
	for obj := it.Next(); obj != nil; obj = it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		gc := obj.(*model.GraphContact)
		if !model.MatchDisplayName(gc.FullName(), keyword) {
			continue
		}
		contacts = append(contacts, gc.Wrap(groups))
	}
	return contacts, nil
}

// GetContact 不存在时返回 nil
func (ds *DataSource) GetContact(ctx context.Context, id string, groups model.PropertyGroups) (*model.Contact, error) {
	gc, err := ds.lookup(id)
	if err != nil || gc == nil {
		return nil, err
	}
	return gc.Wrap(groups), nil
}

func (ds *DataSource) lookup(id string) (*model.GraphContact, error) {
	if id == "" {
		return nil, nil
	}
	txn := ds.memdb().Txn(false)
	defer txn.Abort()
	obj, err := txn.First(tableContact, indexID, id)
	if err != nil {
		return nil, fmt.Errorf("查询联系人 %s 失败: %w", id, err)
	}
	if obj == nil {
		return nil, nil
	}
	return obj.(*model.GraphContact), nil
}
