package model

import (
	"strconv"
	"strings"
)

// 数据行 mimetype
const (
	MimeTypeName         = "vnd.android.cursor.item/name"
	MimeTypeNickname     = "vnd.android.cursor.item/nickname"
	MimeTypePhone        = "vnd.android.cursor.item/phone_v2"
	MimeTypeEmail        = "vnd.android.cursor.item/email_v2"
	MimeTypePostal       = "vnd.android.cursor.item/postal-address_v2"
	MimeTypeOrganization = "vnd.android.cursor.item/organization"
	MimeTypeWebsite      = "vnd.android.cursor.item/website"
	MimeTypeNote         = "vnd.android.cursor.item/note"
	MimeTypeEvent        = "vnd.android.cursor.item/contact_event"
	MimeTypePhoto        = "vnd.android.cursor.item/photo"
)

// CREATE TABLE contacts(
// _id INTEGER PRIMARY KEY AUTOINCREMENT,
// lookup TEXT,
// display_name TEXT,
// starred INTEGER DEFAULT 0,
// has_phone_number INTEGER DEFAULT 0,
// photo_id INTEGER
// )
type ProviderContact struct {
	ID          int64  `json:"_id"`
	Lookup      string `json:"lookup"`
	DisplayName string `json:"display_name"`
	Starred     int    `json:"starred"`
}

func (c *ProviderContact) Wrap() *Contact {
	return &Contact{
		ID:          strconv.FormatInt(c.ID, 10),
		DisplayName: c.DisplayName,
		IsStarred:   c.Starred == 1,
	}
}

// CREATE TABLE data(
// _id INTEGER PRIMARY KEY AUTOINCREMENT,
// raw_contact_id INTEGER NOT NULL,
// mimetype TEXT NOT NULL,
// data1 TEXT, data2 TEXT, data3 TEXT, data4 TEXT, data5 TEXT,
// data6 TEXT, data7 TEXT, data8 TEXT, data9 TEXT, data10 TEXT,
// data14 INTEGER,
// data15 BLOB
// )
type ProviderDataRow struct {
	ID           int64
	RawContactID int64
	MimeType     string
	Data         [10]string // data1 ~ data10
	Data14       int64
	Data15       []byte
}

// Col 返回 dataN 列的值，N 从 1 开始
func (r *ProviderDataRow) Col(n int) string {
	if n < 1 || n > len(r.Data) {
		return ""
	}
	return r.Data[n-1]
}

func (r *ProviderDataRow) typeCode() int {
	t, err := strconv.Atoi(strings.TrimSpace(r.Col(2)))
	if err != nil {
		return TypeCustom
	}
	return t
}

// WrapName data1 display_name, data2 given, data3 family, data4 prefix, data5 middle,
// data6 suffix, data7 phonetic_given, data8 phonetic_middle, data9 phonetic_family
func (r *ProviderDataRow) WrapName(n *Name) {
	n.GivenName = r.Col(2)
	n.FamilyName = r.Col(3)
	n.NamePrefix = r.Col(4)
	n.MiddleName = r.Col(5)
	n.NameSuffix = r.Col(6)
	n.PhoneticGivenName = r.Col(7)
	n.PhoneticMiddleName = r.Col(8)
	n.PhoneticFamilyName = r.Col(9)
}

// WrapPhone data1 number, data2 type, data3 label, data4 normalized_number
func (r *ProviderDataRow) WrapPhone() Phone {
	raw := r.typeCode()
	normalized := r.Col(4)
	if normalized == "" {
		normalized = DigitsOnly(r.Col(1))
	}
	return Phone{
		Number:           r.Col(1),
		NormalizedNumber: normalized,
		Label:            NativeToLabel(CategoryPhone, raw, r.Col(3)),
		CustomLabel:      customText(raw, r.Col(3)),
		RawType:          raw,
	}
}

// WrapEmail data1 address, data2 type, data3 label
func (r *ProviderDataRow) WrapEmail() Email {
	raw := r.typeCode()
	return Email{
		Email:       r.Col(1),
		Label:       NativeToLabel(CategoryEmail, raw, r.Col(3)),
		CustomLabel: customText(raw, r.Col(3)),
		RawType:     raw,
	}
}

// WrapAddress data1 formatted, data2 type, data3 label, data4 street, data7 city,
// data8 region, data9 postcode, data10 country
func (r *ProviderDataRow) WrapAddress() Address {
	raw := r.typeCode()
	return Address{
		Street:      r.Col(4),
		City:        r.Col(7),
		State:       r.Col(8),
		PostalCode:  r.Col(9),
		Country:     r.Col(10),
		Label:       NativeToLabel(CategoryAddress, raw, r.Col(3)),
		CustomLabel: customText(raw, r.Col(3)),
		RawType:     raw,
	}
}

// WrapOrganization data1 company, data4 title, data5 department
func (r *ProviderDataRow) WrapOrganization() Organization {
	return Organization{
		Name:       r.Col(1),
		JobTitle:   r.Col(4),
		Department: r.Col(5),
	}
}

// WrapWebsite data1 url, data2 type, data3 label
func (r *ProviderDataRow) WrapWebsite() Website {
	raw := r.typeCode()
	return Website{
		URL:         r.Col(1),
		Label:       NativeToLabel(CategoryWebsite, raw, r.Col(3)),
		CustomLabel: customText(raw, r.Col(3)),
		RawType:     raw,
	}
}

// WrapEvent data1 start_date, data2 type, data3 label
func (r *ProviderDataRow) WrapEvent() (Event, error) {
	year, month, day, err := ParseEventDate(r.Col(1))
	if err != nil {
		return Event{}, err
	}
	raw := r.typeCode()
	return Event{
		Label:       NativeToLabel(CategoryEvent, raw, r.Col(3)),
		CustomLabel: customText(raw, r.Col(3)),
		Year:        year,
		Month:       month,
		Day:         day,
	}, nil
}

func customText(raw int, label string) string {
	if raw == TypeCustom {
		return label
	}
	return ""
}

// ProviderDisplayName 计算显示名：结构化姓名 > 昵称 > 公司 > 邮箱 > 电话
func ProviderDisplayName(name Name, orgs []Organization, emails []Email, phones []Phone) string {
	if full := name.FullName(); full != "" {
		return full
	}
	if name.Nickname != "" {
		return name.Nickname
	}
	for _, o := range orgs {
		if o.Name != "" {
			return o.Name
		}
	}
	for _, e := range emails {
		if e.Email != "" {
			return e.Email
		}
	}
	for _, p := range phones {
		if p.Number != "" {
			return p.Number
		}
	}
	return ""
}
