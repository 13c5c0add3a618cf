package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"11", "서울"},
		{"39", "제주"},
		{"충청북도", "충북"},
		{"충북", "충북"},
		{"충청남도 천안시 동남구", "충남"},
		{"전라북도 전주시", "전북"},
		{"전남", "전남"},
		{"경상북도 포항시", "경북"},
		{"경상남도 창원시", "경남"},
		{"강원특별자치도 춘천시", "강원"},
		{"서울", "서울"},
		{"서울특별시 중구 세종대로 110", "서울"},
		{"부산광역시 남구 유엔평화로 76", "부산"},
		{"경기도 수원시 팔달구 효원로 293", "경기"},
		{"제주특별자치도 제주시", "제주"},
		{"", OtherRegion},
		{"99", OtherRegion},
		{"Tokyo", OtherRegion},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, RegionName(tt.input))
		})
	}
}

func TestRegionCodes(t *testing.T) {
	codes := RegionCodes()
	assert.Len(t, codes, 17)
	assert.Equal(t, "11", codes[0])
	assert.Equal(t, "39", codes[16])

	seen := make(map[string]bool)
	for _, code := range codes {
		name := RegionNameForCode(code)
		assert.NotEqual(t, code, name, "every code has a name")
		assert.False(t, seen[name], "duplicate region name %s", name)
		seen[name] = true
	}

	assert.Equal(t, "77", RegionNameForCode("77"))
}
