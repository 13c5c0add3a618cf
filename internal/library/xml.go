package library

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// rawResponse mirrors the <response> envelope shared by every data4library
// endpoint. Only one of Libs, Docs or Detail is present for a given endpoint.
// Repeated elements decode into slices, so a single <lib> and many <lib>
// elements look the same after decoding.
type rawResponse struct {
	XMLName   xml.Name     `xml:"response"`
	Error     string       `xml:"error"`
	NumFound  string       `xml:"numFound"`
	ResultNum string       `xml:"resultNum"`
	Libs      *rawLibs     `xml:"libs"`
	Docs      *rawDocs     `xml:"docs"`
	Detail    *rawDetail   `xml:"detail"`
	LoanInfo  *rawLoanInfo `xml:"loanInfo"`
}

type rawLibs struct {
	Lib []rawLib `xml:"lib"`
}

type rawLib struct {
	LibCode       string `xml:"libCode"`
	LibName       string `xml:"libName"`
	Address       string `xml:"address"`
	Tel           string `xml:"tel"`
	Homepage      string `xml:"homepage"`
	OperatingTime string `xml:"operatingTime"`
	Closed        string `xml:"closed"`
	// libSrch capitalises this element, libSrchByBook does not.
	BookCount      string `xml:"BookCount"`
	BookCountLower string `xml:"bookCount"`
}

type rawDocs struct {
	Doc []rawBook `xml:"doc"`
}

type rawDetail struct {
	Book []rawBook `xml:"book"`
}

type rawBook struct {
	BookName        string `xml:"bookname"`
	Authors         string `xml:"authors"`
	Publisher       string `xml:"publisher"`
	PublicationYear string `xml:"publication_year"`
	ISBN13          string `xml:"isbn13"`
	ISBN            string `xml:"isbn"`
	BookImageURL    string `xml:"bookImageURL"`
	Description     string `xml:"description"`
	LoanCount       string `xml:"loan_count"`
}

type rawLoanInfo struct {
	Total struct {
		LoanCnt string `xml:"loanCnt"`
	} `xml:"Total"`
}

// atoi parses upstream numeric text, treating blanks and junk as zero.
func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
