package folio

type Page[T any] struct {
	CurrentPage   int    `json:"current_page" yaml:"current_page"`
	Error         error  `json:"-" yaml:"-"`
	HasNext       bool   `json:"has_next" yaml:"has_next"`
	HasPrevious   bool   `json:"has_previous" yaml:"has_previous"`
	Items         []T    `json:"items" yaml:"items"`
	NextToken     string `json:"next_token,omitempty" yaml:"next_token,omitempty"`
	Offset        int    `json:"offset" yaml:"offset"`
	PageSize      int    `json:"page_size" yaml:"page_size"`
	PreviousToken string `json:"previous_token,omitempty" yaml:"previous_token,omitempty"`
	Size          int    `json:"size" yaml:"size"`
	TotalCount    int    `json:"total_count" yaml:"total_count"`
	TotalPages    int    `json:"total_pages" yaml:"total_pages"`
}

func (page *Page[T]) Collect() (*Page[T], error) {
	return page, page.Error
}

func (page *Page[T]) OnError(callback func(error) error) *Page[T] {
	if page.Error != nil {
		page.Error = callback(page.Error)
	}
	return page
}

func (page *Page[T]) Then(callback func(*Page[T]) error) *Page[T] {
	if page.Error == nil {
		page.Error = callback(page)
	}
	return page
}
