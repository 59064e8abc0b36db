// Package catalog holds the fixed set of target databases a query can be
// routed to. The catalog is immutable data loaded once at process start;
// request handling never mutates it.
package catalog

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadquery/internal/model"
)

// ErrNotFound is returned by Get for an unknown database id. Callers must
// treat it as a routing error, never silently default.
var ErrNotFound = eris.New("catalog: database not found")

// DefaultDatabaseID is the database used when the selection stage is
// forced to resolve (second follow-up, classifier failure). This is a
// documented default, overridable via pipeline.default_database.
const DefaultDatabaseID = "usa_professionals"

// ColumnProfile maps semantic filter categories to the literal column
// names available in one target database.
type ColumnProfile struct {
	LocationColumns    []string
	IndustryColumn     string
	JobTitleColumnHint string
}

// Database describes one target data source.
type Database struct {
	ID               string
	FocusDescription string
	Columns          ColumnProfile

	// SupplementRef names the supplementary extractor endpoint registered
	// for this database. Empty when the target has none.
	SupplementRef string
}

// databases is the fixed catalog, in stable declaration order.
var databases = []Database{
	{
		ID:               "usa_professionals",
		FocusDescription: "US B2B contact records for professionals: job titles, employers, and full US location data. Best fit for domestic people searches without an explicit email requirement.",
		Columns: ColumnProfile{
			LocationColumns:    []string{"City", "State", "Zip Code", "County", "Metro Region", "Country"},
			IndustryColumn:     "Industry",
			JobTitleColumnHint: "Job Title",
		},
		SupplementRef: "usa_professionals",
	},
	{
		ID:               "global_professionals",
		FocusDescription: "Worldwide B2B contact records with verified email addresses. Best fit for international people searches or any query that asks for emails outside the US.",
		Columns: ColumnProfile{
			LocationColumns:    []string{"City", "State / Province", "Postal Code", "Country", "Region"},
			IndustryColumn:     "Industry",
			JobTitleColumnHint: "Job Title",
		},
		SupplementRef: "global_professionals",
	},
	{
		ID:               "usa_local_businesses",
		FocusDescription: "US local business listings: storefronts, service businesses, and their categories. Domestic businesses only, no individual contacts.",
		Columns: ColumnProfile{
			LocationColumns:    []string{"Locality", "State", "Postal Code", "Location"},
			IndustryColumn:     "Category",
			JobTitleColumnHint: "",
		},
		SupplementRef: "",
	},
	{
		ID:               "usa_b2b_emails",
		FocusDescription: "US B2B contact records with email addresses. Best fit for domestic people searches that explicitly request emails.",
		Columns: ColumnProfile{
			LocationColumns:    []string{"City", "State", "Zip", "Country"},
			IndustryColumn:     "Industry",
			JobTitleColumnHint: "Title",
		},
		SupplementRef: "usa_b2b_emails",
	},
}

// byID is derived once at init; the catalog is read-only afterwards.
var byID = func() map[string]Database {
	m := make(map[string]Database, len(databases))
	for _, db := range databases {
		m[db.ID] = db
	}
	return m
}()

// Get looks up a database by id.
func Get(id string) (Database, error) {
	db, ok := byID[id]
	if !ok {
		return Database{}, eris.Wrapf(ErrNotFound, "id %q", id)
	}
	return db, nil
}

// Has reports whether id names a known database.
func Has(id string) bool {
	_, ok := byID[id]
	return ok
}

// Default returns the fallback database used on forced resolution.
func Default() Database {
	return byID[DefaultDatabaseID]
}

// All returns every database in stable declaration order. The returned
// slice is a copy; callers may not reach the backing array.
func All() []Database {
	out := make([]Database, len(databases))
	copy(out, databases)
	return out
}

// locationKeywords maps each location component kind to the lowercase
// keywords that identify matching columns. This is heuristic substring
// matching against a small fixed English vocabulary, kept as data so
// tests can exercise it directly.
var locationKeywords = map[model.ComponentKind][]string{
	model.ComponentCity:    {"city", "locality", "location", "metro"},
	model.ComponentState:   {"state", "region", "province"},
	model.ComponentZip:     {"zip", "postal"},
	model.ComponentCountry: {"country"},
	model.ComponentRegion:  {"metro", "region"},
}

// LocationKeywords returns the column-matching vocabulary for a location
// component kind.
func LocationKeywords(kind model.ComponentKind) []string {
	return locationKeywords[kind]
}
