package render

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/bookscout/internal/library"
	"github.com/lepinkainen/bookscout/internal/ocr"
)

func TestRegionColorsCoverTable(t *testing.T) {
	for _, r := range library.Regions() {
		_, ok := regionColors[r.Name]
		assert.True(t, ok, "missing colour for %s", r.Name)
	}
	_, ok := regionColors[library.OtherRegion]
	assert.True(t, ok)
}

func TestRegionBadge(t *testing.T) {
	assert.Contains(t, RegionBadge("11"), "서울")
	assert.Contains(t, RegionBadge("경상남도 창원시"), "경남")
	assert.Contains(t, RegionBadge("somewhere"), library.OtherRegion)
}

func TestBooks(t *testing.T) {
	var buf bytes.Buffer
	Books(&buf, []library.Book{
		{Title: "위버멘쉬", Author: "프리드리히 니체", Publisher: "더클래식", ISBN: "9791130649641", LoanCount: 100},
	})
	out := buf.String()
	assert.Contains(t, out, "위버멘쉬")
	assert.Contains(t, out, "프리드리히 니체 | 더클래식")
	assert.Contains(t, out, "ISBN 9791130649641")
	assert.Contains(t, out, "100 loans")

	buf.Reset()
	Books(&buf, nil)
	assert.Contains(t, buf.String(), "No books found.")
}

func TestLibraries(t *testing.T) {
	var buf bytes.Buffer
	libs := []library.Library{
		{Code: "111001", Name: "강남구립도서관", Address: "서울특별시 강남구", Region: "서울", BookCount: 2, Closed: "월요일"},
		{Code: "231001", Name: "인천중앙도서관", Address: "인천광역시 남동구"},
	}
	Libraries(&buf, libs)
	out := buf.String()
	assert.Contains(t, out, "강남구립도서관")
	assert.Contains(t, out, "(2 copies)")
	assert.Contains(t, out, "closed 월요일")
	assert.Contains(t, out, "인천")

	buf.Reset()
	RegionSummary(&buf, libs)
	assert.Contains(t, buf.String(), "서울")
	assert.Contains(t, buf.String(), "인천")
}

func TestAnalysisAndHealth(t *testing.T) {
	var buf bytes.Buffer
	Analysis(&buf, &ocr.AnalysisResult{
		OCR:                   ocr.OCRResult{ExtractedText: "데미안 헤르만 헤세", TotalTextCount: 2, ConfidenceScores: []float64{1, 0.5}},
		GPT:                   ocr.GPTResult{GPTResponse: "데미안", GPTModel: "gpt-4o-mini", TokensUsed: 10},
		TotalProcessingTimeMS: 900,
	})
	out := buf.String()
	assert.Contains(t, out, "데미안")
	assert.Contains(t, out, "mean confidence 0.75")
	assert.Contains(t, out, "900 ms")

	buf.Reset()
	Health(&buf, ocr.HealthStatus{Healthy: true, ResponseTime: 12 * time.Millisecond})
	assert.Contains(t, buf.String(), "healthy")

	buf.Reset()
	Health(&buf, ocr.HealthStatus{Error: "connection refused"})
	assert.Contains(t, buf.String(), "connection refused")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, library.Book{Title: "<책>", ISBN: "9788960861234"}))

	var back library.Book
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "<책>", back.Title)
	assert.Contains(t, buf.String(), "<책>")
}
