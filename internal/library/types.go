package library

// Book is a normalized book record, whichever endpoint produced it.
type Book struct {
	Title           string `json:"title" yaml:"title"`
	Author          string `json:"author,omitempty" yaml:"author"`
	Publisher       string `json:"publisher,omitempty" yaml:"publisher"`
	Description     string `json:"description,omitempty" yaml:"description"`
	CoverURL        string `json:"cover_url,omitempty" yaml:"cover_url"`
	ISBN            string `json:"isbn" yaml:"isbn"`
	PublicationYear string `json:"publication_year,omitempty" yaml:"publication_year"`
	LoanCount       int    `json:"loan_count,omitempty" yaml:"loan_count"`
}

// Library is a normalized library record.
type Library struct {
	Code       string `json:"code" yaml:"code"`
	Name       string `json:"name" yaml:"name"`
	Address    string `json:"address,omitempty" yaml:"address"`
	Phone      string `json:"phone,omitempty" yaml:"phone"`
	Homepage   string `json:"homepage,omitempty" yaml:"homepage"`
	Hours      string `json:"hours,omitempty" yaml:"hours"`
	Closed     string `json:"closed,omitempty" yaml:"closed"`
	BookCount  int    `json:"book_count,omitempty" yaml:"book_count"`
	Region     string `json:"region,omitempty" yaml:"region"`
	RegionCode string `json:"region_code,omitempty" yaml:"region_code"`
}

// Page is one normalized upstream page.
type Page[T any] struct {
	Items     []T `json:"items"`
	NumFound  int `json:"num_found"`
	ResultNum int `json:"result_num"`
	// Fallback marks built-in placeholder data served instead of a real response.
	Fallback bool `json:"fallback,omitempty"`
}

// Len returns the number of items on the page; a nil page has none.
func (p *Page[T]) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}
