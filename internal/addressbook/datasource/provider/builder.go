package provider

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sjzar/contactsbridge/internal/errors"
	"github.com/sjzar/contactsbridge/internal/model"
	"github.com/sjzar/contactsbridge/pkg/util/zstd"
)

// target 数据行所属的 raw contact，新建时通过批次下标反向引用
type target struct {
	index int
	id    int64
}

func (t target) insert(mimeType string) *Operation {
	op := NewInsert("data").WithValue("mimetype", mimeType)
	if t.id != 0 {
		return op.WithValue("raw_contact_id", t.id)
	}
	return op.WithValueBackReference("raw_contact_id", t.index)
}

// CreateContact 在一个事务中写入 raw contact、全部数据行和聚合行，返回聚合后的 contacts._id
func (ds *DataSource) CreateContact(ctx context.Context, patch *model.ContactPatch) (string, error) {
	b := &Batch{}
	starred := patch.IsStarred != nil && *patch.IsStarred
	rawIndex := b.Add(NewInsert("raw_contacts").WithValue("starred", boolInt(starred)))
	t := target{index: rawIndex}

	var name *model.Name
	if patch.Name != nil {
		name = &model.Name{}
		patch.Name.ApplyTo(name)
	}
	stageFields(b, t, patch, name, false)

	var contactID int64
	_, err := b.Apply(ctx, ds.db, func(tx *sql.Tx, results []Result) error {
		var err error
		contactID, err = aggregate(ctx, tx, results[rawIndex].ID)
		return err
	})
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(contactID, 10), nil
}

// UpdateContact 只替换 patch 中出现的属性组
func (ds *DataSource) UpdateContact(ctx context.Context, id string, patch *model.ContactPatch) error {
	rawID, err := ds.resolve(ctx, id)
	if err != nil {
		return err
	}

	b := &Batch{}
	if patch.IsStarred != nil {
		b.Add(NewUpdate("raw_contacts").
			WithValue("starred", boolInt(*patch.IsStarred)).
			WithSelection("_id = ?", rawID))
	}

	var name *model.Name
	if patch.Name != nil {
		existing, err := ds.GetContact(ctx, id, model.GroupName)
		if err != nil {
			return err
		}
		if existing == nil {
			return errors.ContactNotFound(id)
		}
		merged := existing.Name
		patch.Name.ApplyTo(&merged)
		name = &merged
	}
	stageFields(b, target{id: rawID}, patch, name, true)

	_, err = b.Apply(ctx, ds.db, func(tx *sql.Tx, _ []Result) error {
		_, err := aggregate(ctx, tx, rawID)
		return err
	})
	return err
}

// DeleteContact 删除聚合行及其全部 raw contact 和数据行
// 已删除的 id 再次删除返回 CONTACT_NOT_FOUND
func (ds *DataSource) DeleteContact(ctx context.Context, id string) error {
	if _, err := ds.resolve(ctx, id); err != nil {
		return err
	}
	contactID, _ := parseID(id)

	rawSelection := "raw_contact_id IN (SELECT _id FROM raw_contacts WHERE contact_id = ?)"
	b := &Batch{}
	b.Add(NewDelete("photo_files").WithSelection(
		"_id IN (SELECT data14 FROM data WHERE mimetype = ? AND "+rawSelection+")", model.MimeTypePhoto, contactID))
	b.Add(NewDelete("data").WithSelection(rawSelection, contactID))
	b.Add(NewDelete("raw_contacts").WithSelection("contact_id = ?", contactID))
	contactsIndex := b.Add(NewDelete("contacts").WithSelection("_id = ?", contactID))

	results, err := b.Apply(ctx, ds.db, nil)
	if err != nil {
		return err
	}
	if results[contactsIndex].Count == 0 {
		return errors.ContactNotFound(id)
	}
	return nil
}

// resolve 返回联系人的 raw contact id
func (ds *DataSource) resolve(ctx context.Context, id string) (int64, error) {
	contactID, ok := parseID(id)
	if !ok {
		return 0, errors.ContactNotFound(id)
	}
	var rawID int64
	err := ds.db.QueryRowContext(ctx,
		`SELECT _id FROM raw_contacts WHERE contact_id = ? AND deleted = 0 ORDER BY _id LIMIT 1`, contactID).Scan(&rawID)
	if err == sql.ErrNoRows {
		return 0, errors.ContactNotFound(id)
	}
	if err != nil {
		return 0, fmt.Errorf("查询联系人 %d 失败: %w", contactID, err)
	}
	return rawID, nil
}

// stageFields 暂存 patch 中出现的属性组，replace 为 true 时先删除该组原有数据行
func stageFields(b *Batch, t target, patch *model.ContactPatch, name *model.Name, replace bool) {
	drop := func(mimeTypes ...string) {
		if !replace {
			return
		}
		args := []any{t.id}
		for _, m := range mimeTypes {
			args = append(args, m)
		}
		b.Add(NewDelete("data").WithSelection(
			"raw_contact_id = ? AND mimetype IN ("+strings.TrimSuffix(strings.Repeat("?,", len(mimeTypes)), ",")+")", args...))
	}

	if name != nil {
		drop(model.MimeTypeName, model.MimeTypeNickname)
		stageName(b, t, *name)
	}
	if patch.Phones != nil {
		drop(model.MimeTypePhone)
		for _, p := range patch.PhoneList() {
			raw, custom := model.ResolveLabel(model.CategoryPhone, p.Label, p.CustomLabel)
			b.Add(t.insert(model.MimeTypePhone).
				WithValue("data1", p.Number).
				WithValue("data2", strconv.Itoa(raw)).
				WithValue("data3", custom).
				WithValue("data4", model.DigitsOnly(p.Number)))
		}
	}
	if patch.Emails != nil {
		drop(model.MimeTypeEmail)
		for _, e := range patch.EmailList() {
			raw, custom := model.ResolveLabel(model.CategoryEmail, e.Label, e.CustomLabel)
			b.Add(t.insert(model.MimeTypeEmail).
				WithValue("data1", e.Email).
				WithValue("data2", strconv.Itoa(raw)).
				WithValue("data3", custom))
		}
	}
	if patch.Addresses != nil {
		drop(model.MimeTypePostal)
		for _, a := range patch.AddressList() {
			raw, custom := model.ResolveLabel(model.CategoryAddress, a.Label, a.CustomLabel)
			b.Add(t.insert(model.MimeTypePostal).
				WithValue("data1", formatAddress(a)).
				WithValue("data2", strconv.Itoa(raw)).
				WithValue("data3", custom).
				WithValue("data4", a.Street).
				WithValue("data7", a.City).
				WithValue("data8", a.State).
				WithValue("data9", a.PostalCode).
				WithValue("data10", a.Country))
		}
	}
	if patch.HasOrganizations() {
		drop(model.MimeTypeOrganization)
		for _, o := range patch.OrganizationList() {
			b.Add(t.insert(model.MimeTypeOrganization).
				WithValue("data1", o.Name).
				WithValue("data4", o.JobTitle).
				WithValue("data5", o.Department))
		}
	}
	if patch.Websites != nil {
		drop(model.MimeTypeWebsite)
		for _, w := range patch.WebsiteList() {
			raw, custom := model.ResolveLabel(model.CategoryWebsite, w.Label, w.CustomLabel)
			b.Add(t.insert(model.MimeTypeWebsite).
				WithValue("data1", w.URL).
				WithValue("data2", strconv.Itoa(raw)).
				WithValue("data3", custom))
		}
	}
	if patch.HasNotes() {
		drop(model.MimeTypeNote)
		for _, n := range patch.NoteList() {
			b.Add(t.insert(model.MimeTypeNote).WithValue("data1", n.Note))
		}
	}
	if patch.Events != nil {
		drop(model.MimeTypeEvent)
		for _, e := range patch.EventList() {
			raw, custom := model.ResolveLabel(model.CategoryEvent, e.Label, e.CustomLabel)
			b.Add(t.insert(model.MimeTypeEvent).
				WithValue("data1", model.FormatEventDate(e.Year, e.Month, e.Day)).
				WithValue("data2", strconv.Itoa(raw)).
				WithValue("data3", custom))
		}
	}
	if thumbnail, photo, touched := patch.Thumbnails(); touched {
		if replace {
			b.Add(NewDelete("photo_files").WithSelection(
				"_id IN (SELECT data14 FROM data WHERE raw_contact_id = ? AND mimetype = ?)", t.id, model.MimeTypePhoto))
		}
		drop(model.MimeTypePhoto)
		stagePhoto(b, t, thumbnail, photo)
	}
}

func stageName(b *Batch, t target, name model.Name) {
	structured := name
	structured.Nickname = ""
	if !structured.IsEmpty() {
		b.Add(t.insert(model.MimeTypeName).
			WithValue("data1", name.FullName()).
			WithValue("data2", name.GivenName).
			WithValue("data3", name.FamilyName).
			WithValue("data4", name.NamePrefix).
			WithValue("data5", name.MiddleName).
			WithValue("data6", name.NameSuffix).
			WithValue("data7", name.PhoneticGivenName).
			WithValue("data8", name.PhoneticMiddleName).
			WithValue("data9", name.PhoneticFamilyName))
	}
	if name.Nickname != "" {
		b.Add(t.insert(model.MimeTypeNickname).WithValue("data1", name.Nickname))
	}
}

// stagePhoto 原图写入 photo_files，数据行 data14 反向引用其 id，data15 为缩略图
func stagePhoto(b *Batch, t target, thumbnail, photo []byte) {
	if len(thumbnail) == 0 && len(photo) == 0 {
		return
	}
	op := t.insert(model.MimeTypePhoto).WithValue("data15", thumbnail)
	if len(photo) > 0 {
		fileIndex := b.Add(NewInsert("photo_files").WithValue("content", zstd.Compress(photo)))
		op.WithValueBackReference("data14", fileIndex)
	}
	b.Add(op)
}

// aggregate 根据 raw contact 的数据行计算聚合行，不存在时创建
func aggregate(ctx context.Context, tx *sql.Tx, rawID int64) (int64, error) {
	var contactID sql.NullInt64
	var starred int
	if err := tx.QueryRowContext(ctx, `SELECT contact_id, starred FROM raw_contacts WHERE _id = ?`, rawID).
		Scan(&contactID, &starred); err != nil {
		return 0, fmt.Errorf("读取 raw contact %d 失败: %w", rawID, err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT `+dataColumns+` FROM data d WHERE d.raw_contact_id = ? ORDER BY d._id`, rawID)
	if err != nil {
		return 0, fmt.Errorf("读取 raw contact %d 数据行失败: %w", rawID, err)
	}
	var (
		name    model.Name
		orgs    []model.Organization
		emails  []model.Email
		phones  []model.Phone
		photoID sql.NullInt64
	)
	for rows.Next() {
		row := &model.ProviderDataRow{}
		dest := []any{&row.ID, &row.RawContactID, &row.MimeType}
		for i := range row.Data {
			dest = append(dest, &row.Data[i])
		}
		dest = append(dest, &row.Data14, &row.Data15)
		if err := rows.Scan(dest...); err != nil {
			rows.Close()
			return 0, err
		}
		switch row.MimeType {
		case model.MimeTypeName:
			row.WrapName(&name)
		case model.MimeTypeNickname:
			name.Nickname = row.Col(1)
		case model.MimeTypeOrganization:
			orgs = append(orgs, row.WrapOrganization())
		case model.MimeTypeEmail:
			emails = append(emails, row.WrapEmail())
		case model.MimeTypePhone:
			phones = append(phones, row.WrapPhone())
		case model.MimeTypePhoto:
			photoID = sql.NullInt64{Int64: row.ID, Valid: true}
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	displayName := model.ProviderDisplayName(name, orgs, emails, phones)
	hasPhone := boolInt(len(phones) > 0)

	if !contactID.Valid {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO contacts (lookup, display_name, starred, has_phone_number, photo_id) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), displayName, starred, hasPhone, photoID)
		if err != nil {
			return 0, fmt.Errorf("创建聚合联系人失败: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		contactID = sql.NullInt64{Int64: id, Valid: true}
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE contacts SET display_name = ?, starred = ?, has_phone_number = ?, photo_id = ? WHERE _id = ?`,
			displayName, starred, hasPhone, photoID, contactID.Int64); err != nil {
			return 0, fmt.Errorf("更新聚合联系人 %d 失败: %w", contactID.Int64, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE raw_contacts SET contact_id = ?, display_name = ? WHERE _id = ?`,
		contactID.Int64, displayName, rawID); err != nil {
		return 0, fmt.Errorf("更新 raw contact %d 失败: %w", rawID, err)
	}
	return contactID.Int64, nil
}

func formatAddress(a model.Address) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, strings.TrimSpace(a.State + " " + a.PostalCode), a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
