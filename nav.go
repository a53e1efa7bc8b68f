package folio

import (
	"net/url"
	"strconv"

	"github.com/evantbyrne/folio/templates/nav"
)

// NavData builds the links for nav.Nav. Page links keep the query of
// baseURL and set page, size and, when one is known, token.
func NavData[T any](paginator *Paginator[T], baseURL string, window int) (nav.Data, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nav.Data{}, err
	}
	pageURL := func(page int) string {
		u := *base
		values := u.Query()
		values.Set("page", strconv.Itoa(page))
		values.Set("size", strconv.Itoa(paginator.PageSize()))
		if token, ok := paginator.PageToken(page); ok {
			values.Set("token", token)
		} else {
			values.Del("token")
		}
		u.RawQuery = values.Encode()
		return u.String()
	}

	current := paginator.CurrentPage()
	data := nav.Data{
		Next: nav.Link{
			Disabled: current >= paginator.TotalPages(),
			Label:    "Next",
			Page:     current + 1,
		},
		Pages: make([]nav.Link, 0),
		Previous: nav.Link{
			Disabled: paginator.IsOnFirstPage(),
			Label:    "Previous",
			Page:     current - 1,
		},
	}
	if !data.Next.Disabled {
		data.Next.URL = pageURL(data.Next.Page)
	}
	if !data.Previous.Disabled {
		data.Previous.URL = pageURL(data.Previous.Page)
	}
	for _, page := range paginator.Pages(window) {
		data.Pages = append(data.Pages, nav.Link{
			Current: page == current,
			Page:    page,
			URL:     pageURL(page),
		})
	}
	return data, nil
}
