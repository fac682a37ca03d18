package model

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/sjzar/contactsbridge/pkg/config"
)

// ContactPatch 写入请求中的联系人
// nil 字段表示请求中未出现，不会被修改
type ContactPatch struct {
	ID            *string         `mapstructure:"id"`
	IsStarred     *bool           `mapstructure:"isStarred"`
	Name          *NamePatch      `mapstructure:"name"`
	Phones        *[]Phone        `mapstructure:"phones"`
	Emails        *[]Email        `mapstructure:"emails"`
	Addresses     *[]Address      `mapstructure:"addresses"`
	Organizations *[]Organization `mapstructure:"organizations"`
	Organization  *Organization   `mapstructure:"organization"`
	Websites      *[]Website      `mapstructure:"websites"`
	Notes         *[]Note         `mapstructure:"notes"`
	Note          *string         `mapstructure:"note"`
	Events        *[]Event        `mapstructure:"events"`
	Thumbnail     *[]byte         `mapstructure:"thumbnail"`
	Photo         *[]byte         `mapstructure:"photo"`
}

type NamePatch struct {
	GivenName          *string `mapstructure:"givenName"`
	FamilyName         *string `mapstructure:"familyName"`
	MiddleName         *string `mapstructure:"middleName"`
	NamePrefix         *string `mapstructure:"namePrefix"`
	NameSuffix         *string `mapstructure:"nameSuffix"`
	Nickname           *string `mapstructure:"nickname"`
	PhoneticGivenName  *string `mapstructure:"phoneticGivenName"`
	PhoneticMiddleName *string `mapstructure:"phoneticMiddleName"`
	PhoneticFamilyName *string `mapstructure:"phoneticFamilyName"`
}

// DecodeArgs 将通道参数 map 解码到 out
func DecodeArgs(input any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			config.StringToBytesHookFunc(),
			config.StringToSliceWithBracketHookFunc(),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// DecodePatch 解码并校验联系人 patch
func DecodePatch(input any) (*ContactPatch, error) {
	m, ok := input.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("contact must be a map, got %T", input)
	}
	p := &ContactPatch{}
	if err := DecodeArgs(m, p); err != nil {
		return nil, fmt.Errorf("decode contact: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *ContactPatch) Validate() error {
	if p.Events != nil {
		for i, e := range *p.Events {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("events[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// ContactID 返回 patch 中的 id，未提供时为空
func (p *ContactPatch) ContactID() string {
	if p.ID == nil {
		return ""
	}
	return strings.TrimSpace(*p.ID)
}

// PhoneList 返回需要写入的电话，跳过空号码
func (p *ContactPatch) PhoneList() []Phone {
	if p.Phones == nil {
		return nil
	}
	list := make([]Phone, 0, len(*p.Phones))
	for _, phone := range *p.Phones {
		if strings.TrimSpace(phone.Number) == "" {
			continue
		}
		list = append(list, phone)
	}
	return list
}

func (p *ContactPatch) EmailList() []Email {
	if p.Emails == nil {
		return nil
	}
	list := make([]Email, 0, len(*p.Emails))
	for _, email := range *p.Emails {
		if strings.TrimSpace(email.Email) == "" {
			continue
		}
		list = append(list, email)
	}
	return list
}

func (p *ContactPatch) AddressList() []Address {
	if p.Addresses == nil {
		return nil
	}
	list := make([]Address, 0, len(*p.Addresses))
	for _, addr := range *p.Addresses {
		if addr.IsEmpty() {
			continue
		}
		list = append(list, addr)
	}
	return list
}

// HasOrganizations 是否需要写入组织，兼容单个 organization 字段
func (p *ContactPatch) HasOrganizations() bool {
	return p.Organizations != nil || p.Organization != nil
}

// OrganizationList 返回需要写入的组织，全部字段为空的条目被丢弃
func (p *ContactPatch) OrganizationList() []Organization {
	var src []Organization
	switch {
	case p.Organizations != nil:
		src = *p.Organizations
	case p.Organization != nil:
		src = []Organization{*p.Organization}
	}
	list := make([]Organization, 0, len(src))
	for _, org := range src {
		if org.IsEmpty() {
			continue
		}
		list = append(list, org)
	}
	return list
}

func (p *ContactPatch) WebsiteList() []Website {
	if p.Websites == nil {
		return nil
	}
	list := make([]Website, 0, len(*p.Websites))
	for _, w := range *p.Websites {
		if strings.TrimSpace(w.URL) == "" {
			continue
		}
		list = append(list, w)
	}
	return list
}

// HasNotes 是否需要写入备注，兼容单个 note 字段
func (p *ContactPatch) HasNotes() bool {
	return p.Notes != nil || p.Note != nil
}

// NoteList 返回需要写入的备注，空备注被丢弃
func (p *ContactPatch) NoteList() []Note {
	var src []Note
	switch {
	case p.Notes != nil:
		src = *p.Notes
	case p.Note != nil:
		src = []Note{{Note: *p.Note}}
	}
	list := make([]Note, 0, len(src))
	for _, n := range src {
		if n.Note == "" {
			continue
		}
		list = append(list, n)
	}
	return list
}

func (p *ContactPatch) EventList() []Event {
	if p.Events == nil {
		return nil
	}
	return *p.Events
}

// Thumbnails 返回需要写入的缩略图和原图
// 只提供原图时缩略图由原图生成
func (p *ContactPatch) Thumbnails() (thumbnail, photo []byte, touched bool) {
	if p.Photo == nil && p.Thumbnail == nil {
		return nil, nil, false
	}
	if p.Photo != nil {
		photo = *p.Photo
	}
	if p.Thumbnail != nil {
		thumbnail = *p.Thumbnail
	} else if len(photo) > 0 {
		thumbnail = DeriveThumbnail(photo)
	}
	return thumbnail, photo, true
}

// ApplyTo 将 name patch 中出现的字段覆盖到 n
func (np *NamePatch) ApplyTo(n *Name) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&n.GivenName, np.GivenName)
	set(&n.FamilyName, np.FamilyName)
	set(&n.MiddleName, np.MiddleName)
	set(&n.NamePrefix, np.NamePrefix)
	set(&n.NameSuffix, np.NameSuffix)
	set(&n.Nickname, np.Nickname)
	set(&n.PhoneticGivenName, np.PhoneticGivenName)
	set(&n.PhoneticMiddleName, np.PhoneticMiddleName)
	set(&n.PhoneticFamilyName, np.PhoneticFamilyName)
}
