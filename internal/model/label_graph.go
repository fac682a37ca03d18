package model

// 对象图存储使用的内置标签字符串
const (
	GraphLabelHome        = "_$!<Home>!$_"
	GraphLabelWork        = "_$!<Work>!$_"
	GraphLabelOther       = "_$!<Other>!$_"
	GraphLabelMobile      = "_$!<Mobile>!$_"
	GraphLabelIPhone      = "iPhone"
	GraphLabelMain        = "_$!<Main>!$_"
	GraphLabelHomeFax     = "_$!<HomeFAX>!$_"
	GraphLabelWorkFax     = "_$!<WorkFAX>!$_"
	GraphLabelPager       = "_$!<Pager>!$_"
	GraphLabelHomePage    = "_$!<HomePage>!$_"
	GraphLabelAnniversary = "_$!<Anniversary>!$_"
)

var graphLabels = map[LabelCategory]map[string]string{
	CategoryPhone: {
		GraphLabelHome:    LabelHome,
		GraphLabelWork:    LabelWork,
		GraphLabelOther:   LabelOther,
		GraphLabelMobile:  LabelMobile,
		GraphLabelIPhone:  LabelMobile,
		GraphLabelMain:    LabelMain,
		GraphLabelHomeFax: LabelFaxHome,
		GraphLabelWorkFax: LabelFaxWork,
		GraphLabelPager:   LabelPager,
	},
	CategoryEmail: {
		GraphLabelHome:  LabelHome,
		GraphLabelWork:  LabelWork,
		GraphLabelOther: LabelOther,
	},
	CategoryAddress: {
		GraphLabelHome:  LabelHome,
		GraphLabelWork:  LabelWork,
		GraphLabelOther: LabelOther,
	},
	CategoryWebsite: {
		GraphLabelHomePage: LabelHomepage,
		GraphLabelHome:     LabelHome,
		GraphLabelWork:     LabelWork,
		GraphLabelOther:    LabelOther,
	},
	CategoryEvent: {
		GraphLabelAnniversary: LabelAnniversary,
		GraphLabelOther:       LabelOther,
	},
}

// 写入方向，iPhone 只在读取时识别
var graphLabelsReverse = func() map[LabelCategory]map[string]string {
	m := make(map[LabelCategory]map[string]string, len(graphLabels))
	for cat, labels := range graphLabels {
		r := make(map[string]string, len(labels))
		for native, label := range labels {
			if native == GraphLabelIPhone {
				continue
			}
			r[label] = native
		}
		m[cat] = r
	}
	return m
}()

// GraphLabelToLabel 将对象图标签转换为中立标签、自定义文本和类型码
// 非内置字符串视为自定义标签原样保留；若恰好是标准词则归一到标准类型码
func GraphLabelToLabel(category LabelCategory, native string) (label, customLabel string, rawType int) {
	if native == "" {
		return LabelOther, "", LabelToNative(category, LabelOther)
	}
	if l, ok := graphLabels[category][native]; ok {
		return l, "", LabelToNative(category, l)
	}
	if IsStandardLabel(category, native) {
		raw := LabelToNative(category, native)
		return NativeToLabel(category, raw, ""), "", raw
	}
	return native, native, TypeCustom
}

// LabelToGraphLabel 将中立标签转换为对象图标签
// 标准词在对象图中没有内置常量时以文本形式写入，自定义标签保留 customLabel，其余映射为 other
func LabelToGraphLabel(category LabelCategory, label, customLabel string) string {
	raw, custom := ResolveLabel(category, label, customLabel)
	if raw == TypeCustom {
		return custom
	}
	canonical := NativeToLabel(category, raw, "")
	if native, ok := graphLabelsReverse[category][canonical]; ok {
		return native
	}
	return canonical
}
