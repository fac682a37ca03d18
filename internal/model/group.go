package model

import (
	"fmt"
	"strings"
)

// PropertyGroups 需要读取的属性组集合
type PropertyGroups uint16

const (
	GroupName PropertyGroups = 1 << iota
	GroupPhones
	GroupEmails
	GroupAddresses
	GroupOrganizations
	GroupWebsites
	GroupNotes
	GroupEvents
	GroupThumbnail
	GroupPhoto
)

const (
	AllProperties = GroupName | GroupPhones | GroupEmails | GroupAddresses |
		GroupOrganizations | GroupWebsites | GroupNotes | GroupEvents
	AllGroups = AllProperties | GroupThumbnail | GroupPhoto
)

var groupNames = []struct {
	group PropertyGroups
	name  string
}{
	{GroupName, "name"},
	{GroupPhones, "phones"},
	{GroupEmails, "emails"},
	{GroupAddresses, "addresses"},
	{GroupOrganizations, "organizations"},
	{GroupWebsites, "websites"},
	{GroupNotes, "notes"},
	{GroupEvents, "events"},
	{GroupThumbnail, "thumbnail"},
	{GroupPhoto, "photo"},
}

// Groups 按 with* 参数组合属性组
func Groups(withProperties, withThumbnail, withPhoto bool) PropertyGroups {
	var g PropertyGroups
	if withProperties {
		g |= AllProperties
	}
	if withThumbnail {
		g |= GroupThumbnail
	}
	if withPhoto {
		g |= GroupPhoto
	}
	return g
}

// ParseGroups 解析属性组名列表，名称不区分大小写
func ParseGroups(names []string) (PropertyGroups, error) {
	var g PropertyGroups
	for _, n := range names {
		found := false
		for _, gn := range groupNames {
			if strings.EqualFold(gn.name, strings.TrimSpace(n)) {
				g |= gn.group
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown property group: %q", n)
		}
	}
	return g, nil
}

func (g PropertyGroups) Has(group PropertyGroups) bool {
	return g&group == group
}

func (g PropertyGroups) HasAny(groups PropertyGroups) bool {
	return g&groups != 0
}

func (g PropertyGroups) String() string {
	names := make([]string, 0, len(groupNames))
	for _, gn := range groupNames {
		if g.Has(gn.group) {
			names = append(names, gn.name)
		}
	}
	return strings.Join(names, ",")
}
