package postgres

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

// where accumulates numbered-placeholder conditions for a list query.
type where struct {
	conds []string
	args  []any
}

// add appends cond, which must contain exactly one %d for the placeholder
// index of arg.
func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends ORDER BY, LIMIT and OFFSET to a base query.
func (w *where) page(base, orderBy string, limit, offset int) (string, []any) {
	args := append(w.args, limit, offset)
	n := len(w.args)
	return fmt.Sprintf("%s%s ORDER BY %s LIMIT $%d OFFSET $%d", base, w.String(), orderBy, n+1, n+2), args
}

func sparePartFilter(f catalog.ExportFilter) *where {
	w := &where{}
	if f.CategoryID != nil {
		w.add("category_id = $%d", *f.CategoryID)
	}
	if m := strings.TrimSpace(f.Manufacturer); m != "" {
		w.add("manufacturer ILIKE '%%' || $%d || '%%'", escapeLike(m))
	}
	return w
}

func carModelFilter(f catalog.ExportFilter) *where {
	w := &where{}
	if f.BrandID != nil {
		w.add("m.brand_id = $%d", *f.BrandID)
	}
	if f.Popular != nil {
		w.add("m.is_popular = $%d", *f.Popular)
	}
	return w
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
