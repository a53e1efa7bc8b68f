package nav

import "strconv"

//go:generate templ generate

type Link struct {
	Current  bool
	Disabled bool
	Label    string
	Page     int
	URL      string
}

type Data struct {
	Label    string
	Next     Link
	Pages    []Link
	Previous Link
}

func (data Data) label() string {
	if data.Label == "" {
		return "Pagination"
	}
	return data.Label
}

func (link Link) enabled() bool {
	return !link.Disabled && link.URL != ""
}

func (link Link) text() string {
	if link.Label == "" {
		return strconv.Itoa(link.Page)
	}
	return link.Label
}
