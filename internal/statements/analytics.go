package statements

import "github.com/vvka-141/sparkify-dwh/pkg/dwh"

// CountRows returns one SELECT COUNT(*) per table in report order.
func CountRows() []dwh.Statement {
	tables := AllTables()
	stmts := make([]dwh.Statement, 0, len(tables))
	for _, t := range tables {
		stmts = append(stmts, dwh.Statement{
			Kind:  dwh.KindSelect,
			Name:  "count " + t.Name,
			Table: t.Name,
			SQL:   "SELECT COUNT(*) FROM " + t.Name,
		})
	}
	return stmts
}
