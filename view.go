package folio

// FilterOperators maps request operator names onto SQL operators.
var FilterOperators = map[string]string{
	"eq":          "=",
	"gt":          ">",
	"gte":         ">=",
	"in":          "IN",
	"is_not_null": "IS NOT NULL",
	"is_null":     "IS NULL",
	"like":        "LIKE",
	"lt":          "<",
	"lte":         "<=",
	"not":         "!=",
	"not_in":      "NOT IN",
}

type ViewConfig struct {
	AllowFilters  map[string]map[string]bool
	AllowPageSize int
	AllowSort     map[string]bool
	PageSize      int
	Query         QueryConfig
}

// View decides which pagination, filter and sort parameters a request may
// set. Everything not allowed is rejected with ErrorUnauthorized.
type View struct {
	Config ViewConfig
}

func (view *View) AllowFilter(column string, operators ...string) *View {
	if _, ok := view.Config.AllowFilters[column]; !ok {
		view.Config.AllowFilters[column] = make(map[string]bool, 0)
	}
	if len(operators) == 0 {
		view.Config.AllowFilters[column]["eq"] = true
	} else {
		for _, operator := range operators {
			if _, ok := FilterOperators[operator]; ok || operator == "*" {
				view.Config.AllowFilters[column][operator] = true
			}
		}
	}
	return view
}

// AllowPageSize caps the page size a request may ask for.
func (view *View) AllowPageSize(size int) *View {
	view.Config.AllowPageSize = size
	return view
}

func (view *View) AllowSort(columns ...string) *View {
	for _, column := range columns {
		view.Config.AllowSort[column] = true
	}
	return view
}

func (view *View) Filter(left any, operator string, right any) *View {
	if len(view.Config.Query.Filters) > 0 {
		view.Config.Query.Filters = append(view.Config.Query.Filters, FilterClause{
			Rule: "AND",
		})
	}
	view.Config.Query.Filters = append(view.Config.Query.Filters, Q(left, operator, right))
	return view
}

// PageSize sets the page size used when the request does not pick one.
func (view *View) PageSize(size int) *View {
	view.Config.PageSize = size
	return view
}

func (view *View) pageSize() int {
	if view.Config.PageSize > 0 {
		return view.Config.PageSize
	}
	return DefaultPageSize
}

func AllowFilter(column string, operators ...string) *View {
	return Deny().AllowFilter(column, operators...)
}

func AllowPageSize(size int) *View {
	return Deny().AllowPageSize(size)
}

func AllowSort(columns ...string) *View {
	return Deny().AllowSort(columns...)
}

func Deny() *View {
	return &View{
		Config: ViewConfig{
			AllowFilters: make(map[string]map[string]bool, 0),
			AllowSort:    make(map[string]bool, 0),
		},
	}
}
