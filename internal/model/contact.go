package model

import (
	"encoding/json"
	"strings"
)

// Contact 平台无关的联系人记录
// 只有 Fetched 中包含的属性组会被填充，已获取的序列字段保证非 nil
type Contact struct {
	ID            string         `json:"id"`
	DisplayName   string         `json:"displayName"`
	IsStarred     bool           `json:"isStarred"`
	Name          Name           `json:"name"`
	Phones        []Phone        `json:"phones"`
	Emails        []Email        `json:"emails"`
	Addresses     []Address      `json:"addresses"`
	Organizations []Organization `json:"organizations"`
	Websites      []Website      `json:"websites"`
	Notes         []Note         `json:"notes"`
	Events        []Event        `json:"events"`
	Thumbnail     []byte         `json:"thumbnail"`
	Photo         []byte         `json:"photo"`

	PropertiesFetched bool `json:"propertiesFetched"`
	ThumbnailFetched  bool `json:"thumbnailFetched"`
	PhotoFetched      bool `json:"photoFetched"`

	Fetched PropertyGroups `json:"-"`
}

type Name struct {
	GivenName          string `json:"givenName" mapstructure:"givenName"`
	FamilyName         string `json:"familyName" mapstructure:"familyName"`
	MiddleName         string `json:"middleName" mapstructure:"middleName"`
	NamePrefix         string `json:"namePrefix" mapstructure:"namePrefix"`
	NameSuffix         string `json:"nameSuffix" mapstructure:"nameSuffix"`
	Nickname           string `json:"nickname" mapstructure:"nickname"`
	PhoneticGivenName  string `json:"phoneticGivenName" mapstructure:"phoneticGivenName"`
	PhoneticMiddleName string `json:"phoneticMiddleName" mapstructure:"phoneticMiddleName"`
	PhoneticFamilyName string `json:"phoneticFamilyName" mapstructure:"phoneticFamilyName"`
}

type Phone struct {
	Number           string `json:"number" mapstructure:"number"`
	NormalizedNumber string `json:"normalizedNumber" mapstructure:"normalizedNumber"`
	Label            string `json:"label" mapstructure:"label"`
	CustomLabel      string `json:"customLabel" mapstructure:"customLabel"`
	RawType          int    `json:"rawType" mapstructure:"rawType"`
}

type Email struct {
	Email       string `json:"email" mapstructure:"email"`
	Label       string `json:"label" mapstructure:"label"`
	CustomLabel string `json:"customLabel" mapstructure:"customLabel"`
	RawType     int    `json:"rawType" mapstructure:"rawType"`
}

type Address struct {
	Street      string `json:"street" mapstructure:"street"`
	City        string `json:"city" mapstructure:"city"`
	State       string `json:"state" mapstructure:"state"`
	PostalCode  string `json:"postalCode" mapstructure:"postalCode"`
	Country     string `json:"country" mapstructure:"country"`
	Label       string `json:"label" mapstructure:"label"`
	CustomLabel string `json:"customLabel" mapstructure:"customLabel"`
	RawType     int    `json:"rawType" mapstructure:"rawType"`
}

type Organization struct {
	Name       string `json:"name" mapstructure:"name"`
	JobTitle   string `json:"jobTitle" mapstructure:"jobTitle"`
	Department string `json:"department" mapstructure:"department"`
}

type Website struct {
	URL         string `json:"url" mapstructure:"url"`
	Label       string `json:"label" mapstructure:"label"`
	CustomLabel string `json:"customLabel" mapstructure:"customLabel"`
	RawType     int    `json:"rawType" mapstructure:"rawType"`
}

type Note struct {
	Note string `json:"note" mapstructure:"note"`
}

// Event 日期事件，Year 为空表示不含年份
type Event struct {
	Label       string `json:"label" mapstructure:"label"`
	CustomLabel string `json:"customLabel" mapstructure:"customLabel"`
	Year        *int   `json:"year,omitempty" mapstructure:"year"`
	Month       int    `json:"month" mapstructure:"month"`
	Day         int    `json:"day" mapstructure:"day"`
}

func (o Organization) IsEmpty() bool {
	return o.Name == "" && o.JobTitle == "" && o.Department == ""
}

func (a Address) IsEmpty() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.PostalCode == "" && a.Country == ""
}

// MarkFetched 记录已获取的属性组，并把已获取的序列字段初始化为空切片
func (c *Contact) MarkFetched(groups PropertyGroups) {
	c.Fetched = groups
	c.PropertiesFetched = groups.HasAny(AllProperties)
	c.ThumbnailFetched = groups.Has(GroupThumbnail)
	c.PhotoFetched = groups.Has(GroupPhoto)

	if groups.Has(GroupPhones) && c.Phones == nil {
		c.Phones = []Phone{}
	}
	if groups.Has(GroupEmails) && c.Emails == nil {
		c.Emails = []Email{}
	}
	if groups.Has(GroupAddresses) && c.Addresses == nil {
		c.Addresses = []Address{}
	}
	if groups.Has(GroupOrganizations) && c.Organizations == nil {
		c.Organizations = []Organization{}
	}
	if groups.Has(GroupWebsites) && c.Websites == nil {
		c.Websites = []Website{}
	}
	if groups.Has(GroupNotes) && c.Notes == nil {
		c.Notes = []Note{}
	}
	if groups.Has(GroupEvents) && c.Events == nil {
		c.Events = []Event{}
	}
}

// ToMap 转换为通道传输使用的嵌套 map，未获取的属性组不会出现
func (c *Contact) ToMap() map[string]any {
	m := map[string]any{
		"id":                c.ID,
		"displayName":       c.DisplayName,
		"isStarred":         c.IsStarred,
		"propertiesFetched": c.PropertiesFetched,
		"thumbnailFetched":  c.ThumbnailFetched,
		"photoFetched":      c.PhotoFetched,
	}

	if c.Fetched.Has(GroupName) {
		m["name"] = map[string]any{
			"givenName":          c.Name.GivenName,
			"familyName":         c.Name.FamilyName,
			"middleName":         c.Name.MiddleName,
			"namePrefix":         c.Name.NamePrefix,
			"nameSuffix":         c.Name.NameSuffix,
			"nickname":           c.Name.Nickname,
			"phoneticGivenName":  c.Name.PhoneticGivenName,
			"phoneticMiddleName": c.Name.PhoneticMiddleName,
			"phoneticFamilyName": c.Name.PhoneticFamilyName,
		}
	}
	if c.Fetched.Has(GroupPhones) {
		list := make([]any, 0, len(c.Phones))
		for _, p := range c.Phones {
			list = append(list, map[string]any{
				"number":           p.Number,
				"normalizedNumber": p.NormalizedNumber,
				"label":            p.Label,
				"customLabel":      p.CustomLabel,
				"rawType":          p.RawType,
			})
		}
		m["phones"] = list
	}
	if c.Fetched.Has(GroupEmails) {
		list := make([]any, 0, len(c.Emails))
		for _, e := range c.Emails {
			list = append(list, map[string]any{
				"email":       e.Email,
				"label":       e.Label,
				"customLabel": e.CustomLabel,
				"rawType":     e.RawType,
			})
		}
		m["emails"] = list
	}
	if c.Fetched.Has(GroupAddresses) {
		list := make([]any, 0, len(c.Addresses))
		for _, a := range c.Addresses {
			list = append(list, map[string]any{
				"street":      a.Street,
				"city":        a.City,
				"state":       a.State,
				"postalCode":  a.PostalCode,
				"country":     a.Country,
				"label":       a.Label,
				"customLabel": a.CustomLabel,
				"rawType":     a.RawType,
			})
		}
		m["addresses"] = list
	}
	if c.Fetched.Has(GroupOrganizations) {
		list := make([]any, 0, len(c.Organizations))
		for _, o := range c.Organizations {
			list = append(list, map[string]any{
				"name":       o.Name,
				"jobTitle":   o.JobTitle,
				"department": o.Department,
			})
		}
		m["organizations"] = list
	}
	if c.Fetched.Has(GroupWebsites) {
		list := make([]any, 0, len(c.Websites))
		for _, w := range c.Websites {
			list = append(list, map[string]any{
				"url":         w.URL,
				"label":       w.Label,
				"customLabel": w.CustomLabel,
				"rawType":     w.RawType,
			})
		}
		m["websites"] = list
	}
	if c.Fetched.Has(GroupNotes) {
		list := make([]any, 0, len(c.Notes))
		for _, n := range c.Notes {
			list = append(list, map[string]any{"note": n.Note})
		}
		m["notes"] = list
	}
	if c.Fetched.Has(GroupEvents) {
		list := make([]any, 0, len(c.Events))
		for _, e := range c.Events {
			em := map[string]any{
				"label":       e.Label,
				"customLabel": e.CustomLabel,
				"month":       e.Month,
				"day":         e.Day,
			}
			if e.Year != nil {
				em["year"] = *e.Year
			}
			list = append(list, em)
		}
		m["events"] = list
	}
	if c.Fetched.Has(GroupThumbnail) {
		m["thumbnail"] = c.Thumbnail
	}
	if c.Fetched.Has(GroupPhoto) {
		m["photo"] = c.Photo
	}
	return m
}

// ContactFromMap 将 ToMap 的结果还原为联系人，用于导出和展示
func ContactFromMap(m map[string]any) (*Contact, error) {
	c := &Contact{}
	if err := DecodeArgs(m, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Contact) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToMap())
}

// CSV 返回 id, displayName, 电话, 邮箱
func (c *Contact) CSV() []string {
	phones := make([]string, 0, len(c.Phones))
	for _, p := range c.Phones {
		phones = append(phones, p.Number)
	}
	emails := make([]string, 0, len(c.Emails))
	for _, e := range c.Emails {
		emails = append(emails, e.Email)
	}
	return []string{c.ID, c.DisplayName, strings.Join(phones, ";"), strings.Join(emails, ";")}
}

func (c *Contact) PlainText() string {
	buf := strings.Builder{}
	buf.WriteString(c.DisplayName)
	buf.WriteString(" (")
	buf.WriteString(c.ID)
	buf.WriteString(")")
	for _, p := range c.Phones {
		buf.WriteString("\n  ")
		buf.WriteString(p.Label)
		buf.WriteString(": ")
		buf.WriteString(p.Number)
	}
	for _, e := range c.Emails {
		buf.WriteString("\n  ")
		buf.WriteString(e.Label)
		buf.WriteString(": ")
		buf.WriteString(e.Email)
	}
	return buf.String()
}
