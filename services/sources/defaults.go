package sources

const (
	hneaoBase   = "https://ks.hneao.cn/gaokao/v1"
	hneaoPlan   = "tbrcdm=12&pcdm=3&kldm=2&jhxzdm=0&jhlbdm=00&zylxdm=1&secondSubject2=0&secondSubject3=000&lqpc=3&jhkl=2&jhxz=0&jhlb=00"
	staticBase  = "https://static-data.gaokao.cn/www/2.0"
	mappingFile = "school_mapping.json"
)

var hneaoHeaders = map[string]string{
	"Accept":           "application/json, text/javascript, */*; q=0.01",
	"Accept-Language":  "zh-CN,zh;q=0.9,en;q=0.8",
	"X-Requested-With": "XMLHttpRequest",
	"platform":         "student",
	"Referer":          "https://ks.hneao.cn/student/volunteer/volunteerSystem/yxjhcx",
}

var staticHeaders = map[string]string{
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
	"Origin":          "https://www.gaokao.cn",
	"Referer":         "https://www.gaokao.cn/",
}

func boolPtr(b bool) *bool { return &b }

func cloneHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Defaults returns the built-in catalog for the Hunan admissions portal and
// the national static-data profile service.
func Defaults() Catalog {
	return Catalog{Sources: map[string]Source{
		"schools": {
			Name:        "schools",
			DisplayName: "Institution listing",
			URL:         hneaoBase + "/volunteer/yxjhk/list?pageSize=100&pageNo={page}&" + hneaoPlan,
			File:        "学校信息-{page}.json",
			Pages:       11,
			Entity:      "institutions",
			CacheBust:   true,
			Headers:     cloneHeaders(hneaoHeaders),
		},
		"groups": {
			Name:        "groups",
			DisplayName: "Program groups",
			URL:         hneaoBase + "/volunteer/yxjhk/zyzpage?pageSize=10000&pageNo=1&" + hneaoPlan + "&yxdh={yxdh}",
			File:        "{yxmc}.json",
			Parent:      "schools",
			Params:      []string{"yxdh", "yxmc"},
			Entity:      "program_groups",
			CacheBust:   true,
			Headers:     cloneHeaders(hneaoHeaders),
		},
		"programs": {
			Name:           "programs",
			DisplayName:    "Programs",
			URL:            hneaoBase + "/volunteer/yxjhk/zypage?pageSize=1000&pageNo=1&" + hneaoPlan + "&yxdh={yxdh}&zyzdm={zyzdm}",
			File:           "{yxmc}-{zyzdm}.json",
			Parent:         "groups",
			Params:         []string{"yxdh", "zyzdm", "yxmc"},
			Entity:         "programs",
			ParamsAsParent: true,
			CacheBust:      true,
			Headers:        cloneHeaders(hneaoHeaders),
		},
		"history-groups": {
			Name:        "history-groups",
			DisplayName: "Historical program group scores",
			URL:         hneaoBase + "/zymk/lnfsxzy/queryLnsjZyzPage?pageSize=100&pageNo=1&pcdm=3&yxdh={yxdh}",
			File:        "{yxmc}.json",
			Parent:      "schools",
			Params:      []string{"yxdh", "yxmc"},
			Entity:      "historical_program_group_scores",
			CacheBust:   true,
			Headers:     cloneHeaders(hneaoHeaders),
		},
		"history-programs": {
			Name:           "history-programs",
			DisplayName:    "Historical program scores",
			URL:            hneaoBase + "/zymk/lnfsxzy/queryLnsjZyPage?pageSize=100&pageNo=1&pcdm=3&nf={nf}&yxdh={yxdh}&zyzdm={zyzdm}&zyzbh={zyzbh}",
			File:           "{nf}-{yxmc}-{zyzdm}-{zyzbh}.json",
			Parent:         "history-groups",
			Params:         []string{"nf", "yxdh", "zyzdm", "zyzbh", "yxmc"},
			Entity:         "historical_program_scores",
			ParamsAsParent: true,
			CacheBust:      true,
			Headers:        cloneHeaders(hneaoHeaders),
		},
		"details": {
			Name:        "details",
			DisplayName: "Institution profiles",
			URL:         staticBase + "/school/{code}/info.json?a=www.gaokao.cn",
			File:        "{name}.json",
			Mapping:     mappingFile,
			Entity:      "institution_details",
			RelaxedTLS:  boolPtr(false),
			Headers:     cloneHeaders(staticHeaders),
		},
		"province-scores": {
			Name:        "province-scores",
			DisplayName: "Provincial score lines",
			URL:         staticBase + "/schoolprovincescore/{code}/{year}/43.json?a=www.gaokao.cn",
			File:        "{name}_{year}.json",
			Mapping:     mappingFile,
			Years:       []int{2024, 2023, 2022},
			RelaxedTLS:  boolPtr(false),
			Headers:     cloneHeaders(staticHeaders),
		},
	}}
}
