package library

import (
	"regexp"
	"strings"
)

// OtherRegion is the bucket for anything that cannot be mapped to a known region.
const OtherRegion = "기타"

// Region is one of the upstream's two-digit region codes and its short name.
type Region struct {
	Code string
	Name string
}

var regions = []Region{
	{"11", "서울"},
	{"21", "부산"},
	{"22", "대구"},
	{"23", "인천"},
	{"24", "광주"},
	{"25", "대전"},
	{"26", "울산"},
	{"29", "세종"},
	{"31", "경기"},
	{"32", "강원"},
	{"33", "충북"},
	{"34", "충남"},
	{"35", "전북"},
	{"36", "전남"},
	{"37", "경북"},
	{"38", "경남"},
	{"39", "제주"},
}

var regionByCode = func() map[string]string {
	m := make(map[string]string, len(regions))
	for _, r := range regions {
		m[r.Code] = r.Name
	}
	return m
}()

// Provinces whose full names share a prefix ("충청", "전라", "경상") and so
// must be matched before the generic prefix rule.
var provinceAliases = []struct {
	needles []string
	name    string
}{
	{[]string{"충청북", "충북"}, "충북"},
	{[]string{"충청남", "충남"}, "충남"},
	{[]string{"전라북", "전북"}, "전북"},
	{[]string{"전라남", "전남"}, "전남"},
	{[]string{"경상북", "경북"}, "경북"},
	{[]string{"경상남", "경남"}, "경남"},
	{[]string{"강원"}, "강원"},
}

// Short names that can be matched directly. Iteration order matters for the
// prefix rule, so this is a slice rather than a map.
var shortNames = []string{"서울", "경기", "부산", "대구", "인천", "광주", "대전", "울산", "세종", "강원", "제주"}

var administrativeSuffix = regexp.MustCompile(`특별시|광역시|도`)

// RegionCodes returns all 17 region codes in their canonical order.
func RegionCodes() []string {
	codes := make([]string, len(regions))
	for i, r := range regions {
		codes[i] = r.Code
	}
	return codes
}

// Regions returns the region table.
func Regions() []Region {
	return append([]Region(nil), regions...)
}

// RegionName maps a region code, a full or short region name, or a street
// address to a short region name. Unknown input maps to OtherRegion.
func RegionName(codeOrName string) string {
	s := strings.TrimSpace(codeOrName)
	if s == "" {
		return OtherRegion
	}

	if name, ok := regionByCode[s]; ok {
		return name
	}

	for _, alias := range provinceAliases {
		for _, needle := range alias.needles {
			if strings.Contains(s, needle) {
				return alias.name
			}
		}
	}

	for _, name := range shortNames {
		if s == name {
			return name
		}
	}

	prefix := firstRunes(s, 5)
	for _, name := range shortNames {
		if strings.Contains(prefix, name) || strings.Contains(name, prefix) {
			return name
		}
	}

	if administrativeSuffix.MatchString(s) {
		first := strings.Fields(s)[0]
		extracted := administrativeSuffix.ReplaceAllString(first, "")
		for _, name := range shortNames {
			if extracted == name {
				return name
			}
		}
	}

	return OtherRegion
}

// RegionNameForCode returns the short name for a code, or the code itself when unknown.
func RegionNameForCode(code string) string {
	if name, ok := regionByCode[code]; ok {
		return name
	}
	return code
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
