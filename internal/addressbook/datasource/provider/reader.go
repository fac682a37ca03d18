package provider

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sjzar/contactsbridge/internal/model"
	"github.com/sjzar/contactsbridge/pkg/util"
	"github.com/sjzar/contactsbridge/pkg/util/zstd"
)

// groupReader 一个属性组对应的 mimetype 和行转换
type groupReader struct {
	group     model.PropertyGroups
	mimeTypes []string
	apply     func(c *model.Contact, row *model.ProviderDataRow) error
	reset     func(c *model.Contact)
}

var groupReaders = []groupReader{
	{
		group:     model.GroupName,
		mimeTypes: []string{model.MimeTypeName, model.MimeTypeNickname},
		apply: func(c *model.Contact, row *model.ProviderDataRow) error {
			if row.MimeType == model.MimeTypeNickname {
				c.Name.Nickname = row.Col(1)
				return nil
			}
			row.WrapName(&c.Name)
			return nil
		},
		reset: func(c *model.Contact) { c.Name = model.Name{} },
	},
	{
		group:     model.GroupPhones,
		mimeTypes: []string{model.MimeTypePhone},
		apply: func(c *model.Contact, row *model.ProviderDataRow) error {
			c.Phones = append(c.Phones, row.WrapPhone())
			return nil
		},
		reset: func(c *model.Contact) { c.Phones = []model.Phone{} },
	},
	{
		group:     model.GroupEmails,
		mimeTypes: []string{model.MimeTypeEmail},
		apply: func(c *model.Contact, row *model.ProviderDataRow) error {
			c.Emails = append(c.Emails, row.WrapEmail())
			return nil
		},
		reset: func(c *model.Contact) { c.Emails = []model.Email{} },
	},
	{
		group:     model.GroupAddresses,
		mimeTypes: []string{model.MimeTypePostal},
		apply: func(c *model.Contact, row *model.ProviderDataRow) error {
			c.Addresses = append(c.Addresses, row.WrapAddress())
			return nil
		},
		reset: func(c *model.Contact) { c.Addresses = []model.Address{} },
	},
	{
		group:     model.GroupOrganizations,
		mimeTypes: []string{model.MimeTypeOrganization},
		apply: func(c *model.Contact, row *model.ProviderDataRow) error {
			if org := row.WrapOrganization(); !org.IsEmpty() {
				c.Organizations = append(c.Organizations, org)
			}
			return nil
		},
		reset: func(c *model.Contact) { c.Organizations = []model.Organization{} },
	},
	{
		group:     model.GroupWebsites,
		mimeTypes: []string{model.MimeTypeWebsite},
		apply: func(c *model.Contact, row *model.ProviderDataRow) error {
			c.Websites = append(c.Websites, row.WrapWebsite())
			return nil
		},
		reset: func(c *model.Contact) { c.Websites = []model.Website{} },
	},
	{
		group:     model.GroupNotes,
		mimeTypes: []string{model.MimeTypeNote},
		apply: func(c *model.Contact, row *model.ProviderDataRow) error {
			if note := row.Col(1); note != "" {
				c.Notes = append(c.Notes, model.Note{Note: note})
			}
			return nil
		},
		reset: func(c *model.Contact) { c.Notes = []model.Note{} },
	},
	{
		group:     model.GroupEvents,
		mimeTypes: []string{model.MimeTypeEvent},
		apply: func(c *model.Contact, row *model.ProviderDataRow) error {
			event, err := row.WrapEvent()
			if err != nil {
				return err
			}
			c.Events = append(c.Events, event)
			return nil
		},
		reset: func(c *model.Contact) { c.Events = []model.Event{} },
	},
	{
		group:     model.GroupThumbnail,
		mimeTypes: []string{model.MimeTypePhoto},
		apply: func(c *model.Contact, row *model.ProviderDataRow) error {
			if len(row.Data15) > 0 {
				c.Thumbnail = row.Data15
			}
			return nil
		},
		reset: func(c *model.Contact) { c.Thumbnail = nil },
	},
}

// GetContacts 返回显示名包含 keyword 的联系人，keyword 为空时返回全部
func (ds *DataSource) GetContacts(ctx context.Context, keyword string, groups model.PropertyGroups) ([]*model.Contact, error) {
	rows, err := ds.db.QueryContext(ctx,
		`SELECT _id, IFNULL(lookup, ''), IFNULL(display_name, ''), starred FROM contacts ORDER BY _id`)
	if err != nil {
		return nil, fmt.Errorf("查询联系人失败: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*model.Contact)
	contacts := make([]*model.Contact, 0)
	for rows.Next() {
		var pc model.ProviderContact
		if err := rows.Scan(&pc.ID, &pc.Lookup, &pc.DisplayName, &pc.Starred); err != nil {
			log.Warnf("扫描联系人行失败: %v", err)
			continue
		}
		if !model.MatchDisplayName(pc.DisplayName, keyword) {
			continue
		}
		c := pc.Wrap()
		byID[pc.ID] = c
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历联系人失败: %w", err)
	}
	rows.Close()

	if len(contacts) > 0 {
		ds.project(ctx, byID, 0, groups)
	}
	for _, c := range contacts {
		c.MarkFetched(groups)
	}
	return contacts, nil
}

// GetContact 返回指定 id 的联系人，不存在时返回 nil
func (ds *DataSource) GetContact(ctx context.Context, id string, groups model.PropertyGroups) (*model.Contact, error) {
	contactID, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	var pc model.ProviderContact
	err := ds.db.QueryRowContext(ctx,
		`SELECT _id, IFNULL(lookup, ''), IFNULL(display_name, ''), starred FROM contacts WHERE _id = ?`, contactID).
		Scan(&pc.ID, &pc.Lookup, &pc.DisplayName, &pc.Starred)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询联系人 %d 失败: %w", contactID, err)
	}

	c := pc.Wrap()
	ds.project(ctx, map[int64]*model.Contact{pc.ID: c}, pc.ID, groups)
	c.MarkFetched(groups)
	return c, nil
}

// project 按属性组逐组读取数据行，单个属性组失败只会使该组为空
// only 非 0 时只查询该联系人的数据行
func (ds *DataSource) project(ctx context.Context, byID map[int64]*model.Contact, only int64, groups model.PropertyGroups) {
	for _, gr := range groupReaders {
		if !groups.Has(gr.group) {
			continue
		}
		if err := ds.readGroup(ctx, byID, only, gr); err != nil {
			log.Warnf("读取属性组 %s 失败: %v", gr.group, err)
			for _, c := range byID {
				gr.reset(c)
			}
		}
	}
	if groups.Has(model.GroupPhoto) {
		if err := ds.readPhotos(ctx, byID, only); err != nil {
			log.Warnf("读取原图失败: %v", err)
			for _, c := range byID {
				c.Photo = nil
			}
		}
	}
}

func (ds *DataSource) queryData(ctx context.Context, only int64, mimeTypes []string) (*sql.Rows, error) {
	query := `SELECT IFNULL(r.contact_id, 0), ` + dataColumns + `
		FROM data d JOIN raw_contacts r ON d.raw_contact_id = r._id
		WHERE r.deleted = 0 AND d.mimetype IN (` + strings.TrimSuffix(strings.Repeat("?,", len(mimeTypes)), ",") + `)`
	args := make([]any, 0, len(mimeTypes)+1)
	for _, m := range mimeTypes {
		args = append(args, m)
	}
	if only != 0 {
		query += ` AND r.contact_id = ?`
		args = append(args, only)
	}
	query += ` ORDER BY d._id`
	return ds.db.QueryContext(ctx, query, args...)
}

func scanDataRow(rows *sql.Rows) (int64, *model.ProviderDataRow, error) {
	var contactID int64
	row := &model.ProviderDataRow{}
	dest := []any{&contactID, &row.ID, &row.RawContactID, &row.MimeType}
	for i := range row.Data {
		dest = append(dest, &row.Data[i])
	}
	dest = append(dest, &row.Data14, &row.Data15)
	if err := rows.Scan(dest...); err != nil {
		return 0, nil, err
	}
	return contactID, row, nil
}

func (ds *DataSource) readGroup(ctx context.Context, byID map[int64]*model.Contact, only int64, gr groupReader) error {
	rows, err := ds.queryData(ctx, only, gr.mimeTypes)
	if err != nil {
		return err
	}
	defer rows.Close()

	failed := make(map[int64]bool)
	for rows.Next() {
		contactID, row, err := scanDataRow(rows)
		if err != nil {
			return err
		}
		c, ok := byID[contactID]
		if !ok || failed[contactID] {
			continue
		}
		if err := gr.apply(c, row); err != nil {
			log.Warnf("联系人 %d 数据行 %d (%s) 无法解析: %v", contactID, row.ID, row.MimeType, err)
			failed[contactID] = true
			gr.reset(c)
		}
	}
	return rows.Err()
}

func (ds *DataSource) readPhotos(ctx context.Context, byID map[int64]*model.Contact, only int64) error {
	rows, err := ds.queryData(ctx, only, []string{model.MimeTypePhoto})
	if err != nil {
		return err
	}
	fileIDs := make(map[int64]int64)
	for rows.Next() {
		contactID, row, err := scanDataRow(rows)
		if err != nil {
			rows.Close()
			return err
		}
		if _, ok := byID[contactID]; ok && row.Data14 != 0 {
			fileIDs[contactID] = row.Data14
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for contactID, fileID := range fileIDs {
		var content []byte
		if err := ds.db.QueryRowContext(ctx, `SELECT content FROM photo_files WHERE _id = ?`, fileID).Scan(&content); err != nil {
			log.Warnf("联系人 %d 原图 %d 读取失败: %v", contactID, fileID, err)
			continue
		}
		photo, err := zstd.Decompress(content)
		if err != nil {
			log.Warnf("联系人 %d 原图 %d 解压失败: %v", contactID, fileID, err)
			continue
		}
		byID[contactID].Photo = photo
	}
	return nil
}

func parseID(id string) (int64, bool) {
	id = strings.TrimSpace(id)
	if !util.IsNumeric(id) {
		return 0, false
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
