package model

// GraphContact 对象图存储中的联系人对象
// 电话、邮箱等均为带标签的值，生日独立于其他日期存放
type GraphContact struct {
	Identifier         string `plist:"identifier"`
	NamePrefix         string `plist:"namePrefix,omitempty"`
	GivenName          string `plist:"givenName,omitempty"`
	MiddleName         string `plist:"middleName,omitempty"`
	FamilyName         string `plist:"familyName,omitempty"`
	NameSuffix         string `plist:"nameSuffix,omitempty"`
	Nickname           string `plist:"nickname,omitempty"`
	PhoneticGivenName  string `plist:"phoneticGivenName,omitempty"`
	PhoneticMiddleName string `plist:"phoneticMiddleName,omitempty"`
	PhoneticFamilyName string `plist:"phoneticFamilyName,omitempty"`
	OrganizationName   string `plist:"organizationName,omitempty"`
	DepartmentName     string `plist:"departmentName,omitempty"`
	JobTitle           string `plist:"jobTitle,omitempty"`
	Note               string `plist:"note,omitempty"`
	Starred            bool   `plist:"starred,omitempty"`

	PhoneNumbers    []GraphLabeledValue  `plist:"phoneNumbers,omitempty"`
	EmailAddresses  []GraphLabeledValue  `plist:"emailAddresses,omitempty"`
	URLAddresses    []GraphLabeledValue  `plist:"urlAddresses,omitempty"`
	PostalAddresses []GraphPostalAddress `plist:"postalAddresses,omitempty"`
	Birthday        *GraphDateComponents `plist:"birthday,omitempty"`
	Dates           []GraphLabeledDate   `plist:"dates,omitempty"`

	ImageData          []byte `plist:"imageData,omitempty"`
	ThumbnailImageData []byte `plist:"thumbnailImageData,omitempty"`

	// 索引字段，保存时计算
	SortName string `plist:"-"`
}

type GraphLabeledValue struct {
	Identifier string `plist:"identifier"`
	Label      string `plist:"label,omitempty"`
	Value      string `plist:"value"`
}

type GraphPostalAddress struct {
	Identifier string `plist:"identifier"`
	Label      string `plist:"label,omitempty"`
	Street     string `plist:"street,omitempty"`
	City       string `plist:"city,omitempty"`
	State      string `plist:"state,omitempty"`
	PostalCode string `plist:"postalCode,omitempty"`
	Country    string `plist:"country,omitempty"`
}

// GraphDateComponents Year 为 0 表示未设置年份
type GraphDateComponents struct {
	Year  int `plist:"year,omitempty"`
	Month int `plist:"month"`
	Day   int `plist:"day"`
}

type GraphLabeledDate struct {
	Identifier string              `plist:"identifier"`
	Label      string              `plist:"label,omitempty"`
	Value      GraphDateComponents `plist:"value"`
}

func (d GraphDateComponents) year() *int {
	if d.Year == 0 {
		return nil
	}
	y := d.Year
	return &y
}

// FullName 计算对象图的显示名：结构化姓名 > 公司名
func (c *GraphContact) FullName() string {
	if full := c.Name().FullName(); full != "" {
		return full
	}
	return c.OrganizationName
}

// Name 返回结构化姓名
func (c *GraphContact) Name() Name {
	return Name{
		GivenName:          c.GivenName,
		FamilyName:         c.FamilyName,
		MiddleName:         c.MiddleName,
		NamePrefix:         c.NamePrefix,
		NameSuffix:         c.NameSuffix,
		Nickname:           c.Nickname,
		PhoneticGivenName:  c.PhoneticGivenName,
		PhoneticMiddleName: c.PhoneticMiddleName,
		PhoneticFamilyName: c.PhoneticFamilyName,
	}
}

// SetName 写入结构化姓名
func (c *GraphContact) SetName(n Name) {
	c.GivenName = n.GivenName
	c.FamilyName = n.FamilyName
	c.MiddleName = n.MiddleName
	c.NamePrefix = n.NamePrefix
	c.NameSuffix = n.NameSuffix
	c.Nickname = n.Nickname
	c.PhoneticGivenName = n.PhoneticGivenName
	c.PhoneticMiddleName = n.PhoneticMiddleName
	c.PhoneticFamilyName = n.PhoneticFamilyName
}

// Wrap 只转换 groups 中请求的属性组
func (c *GraphContact) Wrap(groups PropertyGroups) *Contact {
	contact := &Contact{
		ID:          c.Identifier,
		DisplayName: c.FullName(),
		IsStarred:   c.Starred,
	}

	if groups.Has(GroupName) {
		contact.Name = c.Name()
	}
	if groups.Has(GroupPhones) {
		contact.Phones = make([]Phone, 0, len(c.PhoneNumbers))
		for _, v := range c.PhoneNumbers {
			label, custom, raw := GraphLabelToLabel(CategoryPhone, v.Label)
			contact.Phones = append(contact.Phones, Phone{
				Number:           v.Value,
				NormalizedNumber: DigitsOnly(v.Value),
				Label:            label,
				CustomLabel:      custom,
				RawType:          raw,
			})
		}
	}
	if groups.Has(GroupEmails) {
		contact.Emails = make([]Email, 0, len(c.EmailAddresses))
		for _, v := range c.EmailAddresses {
			label, custom, raw := GraphLabelToLabel(CategoryEmail, v.Label)
			contact.Emails = append(contact.Emails, Email{
				Email:       v.Value,
				Label:       label,
				CustomLabel: custom,
				RawType:     raw,
			})
		}
	}
	if groups.Has(GroupAddresses) {
		contact.Addresses = make([]Address, 0, len(c.PostalAddresses))
		for _, v := range c.PostalAddresses {
			label, custom, raw := GraphLabelToLabel(CategoryAddress, v.Label)
			contact.Addresses = append(contact.Addresses, Address{
				Street:      v.Street,
				City:        v.City,
				State:       v.State,
				PostalCode:  v.PostalCode,
				Country:     v.Country,
				Label:       label,
				CustomLabel: custom,
				RawType:     raw,
			})
		}
	}
	if groups.Has(GroupOrganizations) {
		contact.Organizations = []Organization{}
		org := Organization{Name: c.OrganizationName, JobTitle: c.JobTitle, Department: c.DepartmentName}
		if !org.IsEmpty() {
			contact.Organizations = append(contact.Organizations, org)
		}
	}
	if groups.Has(GroupWebsites) {
		contact.Websites = make([]Website, 0, len(c.URLAddresses))
		for _, v := range c.URLAddresses {
			label, custom, raw := GraphLabelToLabel(CategoryWebsite, v.Label)
			contact.Websites = append(contact.Websites, Website{
				URL:         v.Value,
				Label:       label,
				CustomLabel: custom,
				RawType:     raw,
			})
		}
	}
	if groups.Has(GroupNotes) {
		contact.Notes = []Note{}
		if c.Note != "" {
			contact.Notes = append(contact.Notes, Note{Note: c.Note})
		}
	}
	if groups.Has(GroupEvents) {
		contact.Events = make([]Event, 0, len(c.Dates)+1)
		if c.Birthday != nil {
			contact.Events = append(contact.Events, Event{
				Label: LabelBirthday,
				Year:  c.Birthday.year(),
				Month: c.Birthday.Month,
				Day:   c.Birthday.Day,
			})
		}
		for _, v := range c.Dates {
			label, custom, _ := GraphLabelToLabel(CategoryEvent, v.Label)
			contact.Events = append(contact.Events, Event{
				Label:       label,
				CustomLabel: custom,
				Year:        v.Value.year(),
				Month:       v.Value.Month,
				Day:         v.Value.Day,
			})
		}
	}
	if groups.Has(GroupThumbnail) {
		contact.Thumbnail = c.ThumbnailImageData
	}
	if groups.Has(GroupPhoto) {
		contact.Photo = c.ImageData
	}

	contact.MarkFetched(groups)
	return contact
}

// Clone 深拷贝，存储中的对象不可原地修改
func (c *GraphContact) Clone() *GraphContact {
	n := *c
	n.PhoneNumbers = append([]GraphLabeledValue(nil), c.PhoneNumbers...)
	n.EmailAddresses = append([]GraphLabeledValue(nil), c.EmailAddresses...)
	n.URLAddresses = append([]GraphLabeledValue(nil), c.URLAddresses...)
	n.PostalAddresses = append([]GraphPostalAddress(nil), c.PostalAddresses...)
	n.Dates = append([]GraphLabeledDate(nil), c.Dates...)
	if c.Birthday != nil {
		b := *c.Birthday
		n.Birthday = &b
	}
	n.ImageData = append([]byte(nil), c.ImageData...)
	n.ThumbnailImageData = append([]byte(nil), c.ThumbnailImageData...)
	return &n
}
