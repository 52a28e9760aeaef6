package statements

import (
	"fmt"
	"strings"

	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// Column is one column of a table definition.
type Column struct {
	Name       string
	Type       string
	PrimaryKey bool
	NotNull    bool
	Identity   bool // auto-incrementing surrogate starting at 0
	DistKey    bool
	SortKey    bool
}

// Table is a warehouse table definition.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in definition order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Table names.
const (
	TableStagingEvents = "staging_events"
	TableStagingSongs  = "staging_songs"
	TableSongplays     = "songplays"
	TableUsers         = "users"
	TableSongs         = "songs"
	TableArtists       = "artists"
	TableTime          = "time"
)

var (
	StagingEvents = Table{Name: TableStagingEvents, Columns: []Column{
		{Name: "artist", Type: "text", DistKey: true},
		{Name: "auth", Type: "text"},
		{Name: "firstname", Type: "text"},
		{Name: "gender", Type: "text"},
		{Name: "iteminsession", Type: "int"},
		{Name: "lastname", Type: "text"},
		{Name: "length", Type: "numeric"},
		{Name: "level", Type: "text"},
		{Name: "location", Type: "text"},
		{Name: "method", Type: "text"},
		{Name: "page", Type: "text"},
		{Name: "registration", Type: "numeric"},
		{Name: "sessionid", Type: "int"},
		{Name: "song", Type: "text"},
		{Name: "status", Type: "int"},
		{Name: "ts", Type: "timestamp"},
		{Name: "useragent", Type: "text"},
		{Name: "userid", Type: "int"},
	}}

	StagingSongs = Table{Name: TableStagingSongs, Columns: []Column{
		{Name: "artist_id", Type: "text"},
		{Name: "artist_latitude", Type: "float"},
		{Name: "artist_location", Type: "varchar(max)"},
		{Name: "artist_longitude", Type: "float"},
		{Name: "artist_name", Type: "varchar(max)", DistKey: true},
		{Name: "duration", Type: "numeric"},
		{Name: "num_songs", Type: "int"},
		{Name: "song_id", Type: "text"},
		{Name: "title", Type: "varchar(max)"},
		{Name: "year", Type: "int"},
	}}

	Songplays = Table{Name: TableSongplays, Columns: []Column{
		{Name: "songplay_id", Type: "int", Identity: true, PrimaryKey: true},
		{Name: "start_time", Type: "timestamp", NotNull: true, SortKey: true},
		{Name: "user_id", Type: "varchar", NotNull: true},
		{Name: "level", Type: "varchar"},
		{Name: "song_id", Type: "varchar", NotNull: true},
		{Name: "artist_id", Type: "varchar", NotNull: true, DistKey: true},
		{Name: "session_id", Type: "int"},
		{Name: "location", Type: "varchar"},
		{Name: "user_agent", Type: "varchar"},
	}}

	Users = Table{Name: TableUsers, Columns: []Column{
		{Name: "user_id", Type: "int", PrimaryKey: true},
		{Name: "first_name", Type: "varchar"},
		{Name: "last_name", Type: "varchar"},
		{Name: "gender", Type: "varchar"},
		{Name: "level", Type: "varchar", SortKey: true},
	}}

	Songs = Table{Name: TableSongs, Columns: []Column{
		{Name: "song_id", Type: "varchar", PrimaryKey: true},
		{Name: "title", Type: "varchar"},
		{Name: "artist_id", Type: "varchar"},
		{Name: "year", Type: "int", SortKey: true},
		{Name: "duration", Type: "numeric"},
	}}

	Artists = Table{Name: TableArtists, Columns: []Column{
		{Name: "artist_id", Type: "varchar", PrimaryKey: true},
		{Name: "name", Type: "varchar"},
		{Name: "location", Type: "varchar"},
		{Name: "latitude", Type: "numeric"},
		{Name: "longitude", Type: "numeric"},
	}}

	Time = Table{Name: TableTime, Columns: []Column{
		{Name: "start_time", Type: "timestamp", PrimaryKey: true, SortKey: true},
		{Name: "hour", Type: "int"},
		{Name: "day", Type: "int"},
		{Name: "week", Type: "int"},
		{Name: "month", Type: "int"},
		{Name: "year", Type: "int"},
		{Name: "weekday", Type: "int"},
	}}
)

// dropOrder and createOrder differ: drops go staging first then the fact
// table, creates put the fact table last.
var (
	dropOrder   = []Table{StagingEvents, StagingSongs, Songplays, Users, Songs, Artists, Time}
	createOrder = []Table{StagingEvents, StagingSongs, Users, Songs, Artists, Time, Songplays}
)

// AllTables returns the seven table definitions in report order.
func AllTables() []Table {
	return []Table{StagingEvents, StagingSongs, Songplays, Users, Songs, Artists, Time}
}

// DropTables returns one DROP TABLE IF EXISTS per table.
func DropTables() []dwh.Statement {
	stmts := make([]dwh.Statement, 0, len(dropOrder))
	for _, t := range dropOrder {
		stmts = append(stmts, dwh.Statement{
			Kind:   dwh.KindDDL,
			Action: dwh.SchemaDrop,
			Name:   "drop " + t.Name,
			Table:  t.Name,
			SQL:    "DROP TABLE IF EXISTS " + t.Name,
		})
	}
	return stmts
}

// CreateTables returns one CREATE TABLE per table for the dialect.
func CreateTables(d dwh.Dialect) []dwh.Statement {
	stmts := make([]dwh.Statement, 0, len(createOrder))
	for _, t := range createOrder {
		stmts = append(stmts, dwh.Statement{
			Kind:   dwh.KindDDL,
			Action: dwh.SchemaCreate,
			Name:   "create " + t.Name,
			Table:  t.Name,
			SQL:    CreateTableSQL(t, d),
		})
	}
	return stmts
}

// CreateTableSQL renders a CREATE TABLE statement for the dialect.
func CreateTableSQL(t Table, d dwh.Dialect) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", t.Name)
	for i, c := range t.Columns {
		fmt.Fprintf(&b, "    %-20s%s", c.Name, columnSpec(c, d))
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

func columnSpec(c Column, d dwh.Dialect) string {
	parts := []string{columnType(c.Type, d)}

	if c.Identity {
		if d == dwh.DialectRedshift {
			parts = append(parts, "IDENTITY(0,1)")
		} else {
			parts = append(parts, "GENERATED BY DEFAULT AS IDENTITY (START WITH 0 MINVALUE 0)")
		}
	}
	if c.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if c.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if d == dwh.DialectRedshift {
		if c.DistKey {
			parts = append(parts, "distkey")
		}
		if c.SortKey {
			parts = append(parts, "sortkey")
		}
	}
	return strings.Join(parts, " ")
}

func columnType(typ string, d dwh.Dialect) string {
	if d == dwh.DialectPostgres && typ == "varchar(max)" {
		return "text"
	}
	return typ
}

// TableByName returns the definition of the named table.
func TableByName(name string) (Table, bool) {
	for _, t := range AllTables() {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
