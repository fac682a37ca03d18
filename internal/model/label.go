package model

import "strings"

// LabelCategory 标签所属的字段类别
type LabelCategory int

const (
	CategoryPhone LabelCategory = iota
	CategoryEmail
	CategoryAddress
	CategoryWebsite
	CategoryEvent
)

func (c LabelCategory) String() string {
	switch c {
	case CategoryPhone:
		return "phone"
	case CategoryEmail:
		return "email"
	case CategoryAddress:
		return "address"
	case CategoryWebsite:
		return "website"
	case CategoryEvent:
		return "event"
	}
	return "unknown"
}

// 中立标签词表
const (
	LabelHome        = "home"
	LabelWork        = "work"
	LabelMobile      = "mobile"
	LabelOther       = "other"
	LabelCustom      = "custom"
	LabelMain        = "main"
	LabelPager       = "pager"
	LabelFaxWork     = "faxWork"
	LabelFaxHome     = "faxHome"
	LabelHomepage    = "homepage"
	LabelBlog        = "blog"
	LabelProfile     = "profile"
	LabelFTP         = "ftp"
	LabelBirthday    = "birthday"
	LabelAnniversary = "anniversary"
)

// TypeCustom 所有类别共用的自定义类型码，配合自定义文本使用
const TypeCustom = 0

// 电话类型码
const (
	PhoneTypeHome    = 1
	PhoneTypeMobile  = 2
	PhoneTypeWork    = 3
	PhoneTypeFaxWork = 4
	PhoneTypeFaxHome = 5
	PhoneTypePager   = 6
	PhoneTypeOther   = 7
	PhoneTypeMain    = 12
)

// 邮箱类型码
const (
	EmailTypeHome   = 1
	EmailTypeWork   = 2
	EmailTypeOther  = 3
	EmailTypeMobile = 4
)

// 地址类型码
const (
	AddressTypeHome  = 1
	AddressTypeWork  = 2
	AddressTypeOther = 3
)

// 网站类型码
const (
	WebsiteTypeHomepage = 1
	WebsiteTypeBlog     = 2
	WebsiteTypeProfile  = 3
	WebsiteTypeHome     = 4
	WebsiteTypeWork     = 5
	WebsiteTypeFTP      = 6
	WebsiteTypeOther    = 7
)

// 事件类型码
const (
	EventTypeAnniversary = 1
	EventTypeOther       = 2
	EventTypeBirthday    = 3
)

type labelTable struct {
	toLabel  map[int]string
	synonyms map[string]int
	other    int
}

func newLabelTable(other int, toLabel map[int]string, synonyms map[string]int) labelTable {
	t := labelTable{
		toLabel:  toLabel,
		synonyms: make(map[string]int, len(toLabel)+len(synonyms)),
		other:    other,
	}
	for raw, label := range toLabel {
		t.synonyms[strings.ToLower(label)] = raw
	}
	for label, raw := range synonyms {
		t.synonyms[label] = raw
	}
	return t
}

var labelTables = map[LabelCategory]labelTable{
	CategoryPhone: newLabelTable(PhoneTypeOther, map[int]string{
		PhoneTypeHome:    LabelHome,
		PhoneTypeMobile:  LabelMobile,
		PhoneTypeWork:    LabelWork,
		PhoneTypeFaxWork: LabelFaxWork,
		PhoneTypeFaxHome: LabelFaxHome,
		PhoneTypePager:   LabelPager,
		PhoneTypeOther:   LabelOther,
		PhoneTypeMain:    LabelMain,
	}, map[string]int{
		"cell": PhoneTypeMobile,
	}),
	CategoryEmail: newLabelTable(EmailTypeOther, map[int]string{
		EmailTypeHome:   LabelHome,
		EmailTypeWork:   LabelWork,
		EmailTypeOther:  LabelOther,
		EmailTypeMobile: LabelMobile,
	}, nil),
	CategoryAddress: newLabelTable(AddressTypeOther, map[int]string{
		AddressTypeHome:  LabelHome,
		AddressTypeWork:  LabelWork,
		AddressTypeOther: LabelOther,
	}, nil),
	CategoryWebsite: newLabelTable(WebsiteTypeOther, map[int]string{
		WebsiteTypeHomepage: LabelHomepage,
		WebsiteTypeBlog:     LabelBlog,
		WebsiteTypeProfile:  LabelProfile,
		WebsiteTypeHome:     LabelHome,
		WebsiteTypeWork:     LabelWork,
		WebsiteTypeFTP:      LabelFTP,
		WebsiteTypeOther:    LabelOther,
	}, nil),
	CategoryEvent: newLabelTable(EventTypeOther, map[int]string{
		EventTypeAnniversary: LabelAnniversary,
		EventTypeOther:       LabelOther,
		EventTypeBirthday:    LabelBirthday,
	}, nil),
}

// NativeToLabel 将原生类型码转换为中立标签
// 自定义类型码返回自定义文本，文本为空时返回 "custom"；未知类型码返回 "other"
func NativeToLabel(category LabelCategory, rawType int, customText string) string {
	if rawType == TypeCustom {
		if customText != "" {
			return customText
		}
		return LabelCustom
	}
	if t, ok := labelTables[category]; ok {
		if label, ok := t.toLabel[rawType]; ok {
			return label
		}
	}
	return LabelOther
}

// LabelToNative 将中立标签转换为原生类型码，不区分大小写
// 无法识别的标签（包括自定义文本）统一映射为该类别的 other 类型码，因此 label -> rawType -> label 不保证可逆
func LabelToNative(category LabelCategory, label string) int {
	t, ok := labelTables[category]
	if !ok {
		return TypeCustom
	}
	if raw, ok := t.synonyms[strings.ToLower(strings.TrimSpace(label))]; ok {
		return raw
	}
	return t.other
}

// IsStandardLabel 标签是否属于该类别的标准词表
func IsStandardLabel(category LabelCategory, label string) bool {
	t, ok := labelTables[category]
	if !ok {
		return false
	}
	_, ok = t.synonyms[strings.ToLower(strings.TrimSpace(label))]
	return ok
}

// StandardTypes 返回该类别全部标准类型码
func StandardTypes(category LabelCategory) []int {
	t := labelTables[category]
	types := make([]int, 0, len(t.toLabel))
	for raw := range t.toLabel {
		types = append(types, raw)
	}
	return types
}

// ResolveLabel 计算写入时使用的类型码和自定义文本
// label 为 "custom" 且提供了 customLabel 时保留自定义文本，其余情况按词表映射
func ResolveLabel(category LabelCategory, label, customLabel string) (rawType int, customText string) {
	if strings.EqualFold(strings.TrimSpace(label), LabelCustom) && customLabel != "" {
		return TypeCustom, customLabel
	}
	return LabelToNative(category, label), ""
}
