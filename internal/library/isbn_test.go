package library

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestValidISBN(t *testing.T) {
	valid := []string{
		"9788960861234",
		"978-89-6086-123-4",
		"979 11 1234 567 8",
		"8960861234",
	}
	invalid := []string{
		"12345",
		"",
		"9771234567890",  // wrong prefix
		"97889608612345", // too long
		"978896086123X",
		"89-6086-123",
	}

	for _, isbn := range valid {
		assert.True(t, ValidISBN(isbn), "%q should be valid", isbn)
	}
	for _, isbn := range invalid {
		assert.False(t, ValidISBN(isbn), "%q should be invalid", isbn)
	}
}

func TestCleanISBN(t *testing.T) {
	assert.Equal(t, "9788960861234", CleanISBN(" 978-89-6086 1234 "))
}

func TestPreprocessKeyword(t *testing.T) {
	tests := []struct {
		keyword string
		limit   int
		want    string
	}{
		{"세 가지 질문에 대하여", 2, "세 가지"},
		{"  데미안  ", 2, "데미안"},
		{"세   가지\t질문", 2, "세 가지"},
		{"세 가지 질문에 대하여", 3, "세 가지 질문에"},
		{"세 가지 질문에 대하여", 0, "세 가지 질문에 대하여"},
		{"   ", 2, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PreprocessKeyword(tt.keyword, tt.limit))
	}
}
