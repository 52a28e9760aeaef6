package statements

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

const testRole = "arn:aws:iam::123456789012:role/dwhRole"

func testEventsSource() dwh.CopySource {
	return dwh.CopySource{
		URI:            "s3://udacity-dend/log_data",
		CredentialRole: testRole,
		Region:         "us-west-2",
		JSONShape:      "s3://udacity-dend/log_json_path.json",
		EpochMillis:    true,
	}
}

func tablesOf(stmts []dwh.Statement) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = s.Table
	}
	return out
}

func TestDropTables_Order(t *testing.T) {
	stmts := DropTables()

	assert.Equal(t, []string{
		"staging_events", "staging_songs", "songplays", "users", "songs", "artists", "time",
	}, tablesOf(stmts))
	for _, s := range stmts {
		assert.Equal(t, dwh.KindDDL, s.Kind)
		assert.Equal(t, dwh.SchemaDrop, s.Action)
		assert.Equal(t, "DROP TABLE IF EXISTS "+s.Table, s.SQL)
	}
}

func TestCreateTables_Order(t *testing.T) {
	stmts := CreateTables(dwh.DialectRedshift)

	assert.Equal(t, []string{
		"staging_events", "staging_songs", "users", "songs", "artists", "time", "songplays",
	}, tablesOf(stmts))
	for _, s := range stmts {
		assert.Equal(t, dwh.KindDDL, s.Kind)
		assert.Equal(t, dwh.SchemaCreate, s.Action)
		assert.True(t, strings.HasPrefix(s.SQL, "CREATE TABLE "+s.Table+" ("), s.SQL)
	}
}

func TestCreateTableSQL_Redshift(t *testing.T) {
	sql := CreateTableSQL(Songplays, dwh.DialectRedshift)

	assert.Contains(t, sql, "songplay_id         int IDENTITY(0,1) PRIMARY KEY")
	assert.Contains(t, sql, "start_time          timestamp NOT NULL sortkey")
	assert.Contains(t, sql, "artist_id           varchar NOT NULL distkey")

	staging := CreateTableSQL(StagingSongs, dwh.DialectRedshift)
	assert.Contains(t, staging, "artist_name         varchar(max) distkey")
}

func TestCreateTableSQL_Postgres(t *testing.T) {
	sql := CreateTableSQL(Songplays, dwh.DialectPostgres)

	assert.Contains(t, sql, "GENERATED BY DEFAULT AS IDENTITY (START WITH 0 MINVALUE 0)")
	assert.NotContains(t, sql, "IDENTITY(0,1)")
	assert.NotContains(t, sql, "distkey")
	assert.NotContains(t, sql, "sortkey")

	staging := CreateTableSQL(StagingSongs, dwh.DialectPostgres)
	assert.NotContains(t, staging, "varchar(max)")
	assert.Contains(t, staging, "artist_name         text")
}

func TestCopyEvents_TextContract(t *testing.T) {
	stmt, err := CopyEvents(testEventsSource(), dwh.DialectRedshift)
	require.NoError(t, err)

	assert.Equal(t,
		"COPY staging_events FROM 's3://udacity-dend/log_data' credentials 'aws_iam_role=arn:aws:iam::123456789012:role/dwhRole' region 'us-west-2' JSON 's3://udacity-dend/log_json_path.json' timeformat 'epochmillisecs'",
		stmt.SQL)
	assert.Equal(t, dwh.KindCopy, stmt.Kind)
	assert.Equal(t, "staging_events", stmt.Table)
	require.NotNil(t, stmt.Copy)
	assert.Equal(t, StagingEvents.ColumnNames(), stmt.Columns)
}

func TestCopySongs_TextContract(t *testing.T) {
	src := testEventsSource()
	src.URI = "s3://udacity-dend/song_data"
	src.EpochMillis = false

	stmt, err := CopySongs(src, dwh.DialectRedshift)
	require.NoError(t, err)

	assert.Equal(t,
		"COPY staging_songs FROM 's3://udacity-dend/song_data' credentials 'aws_iam_role=arn:aws:iam::123456789012:role/dwhRole' region 'us-west-2' JSON 'auto'",
		stmt.SQL)
	assert.True(t, stmt.Copy.IsAuto())
}

func TestCopyEvents_EscapesQuotes(t *testing.T) {
	src := testEventsSource()
	src.URI = "s3://bucket/it's"

	stmt, err := CopyEvents(src, dwh.DialectRedshift)
	require.NoError(t, err)
	assert.Contains(t, stmt.SQL, "FROM 's3://bucket/it''s'")
}

func TestCopyEvents_RequiresJSONPaths(t *testing.T) {
	src := testEventsSource()
	src.JSONShape = "auto"

	_, err := CopyEvents(src, dwh.DialectRedshift)
	assert.ErrorIs(t, err, dwh.ErrConfiguration)
}

func TestValidateCopySource(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*dwh.CopySource)
		dialect dwh.Dialect
		wantErr string
	}{
		{name: "valid", mutate: func(*dwh.CopySource) {}, dialect: dwh.DialectRedshift},
		{
			name:    "local path rejected on redshift",
			mutate:  func(s *dwh.CopySource) { s.URI = "./data/log_data" },
			dialect: dwh.DialectRedshift,
			wantErr: "must be an s3:// URI",
		},
		{
			name: "local paths accepted on postgres",
			mutate: func(s *dwh.CopySource) {
				s.URI = "./data/log_data"
				s.JSONShape = "./data/log_json_path.json"
			},
			dialect: dwh.DialectPostgres,
		},
		{
			name:    "other scheme rejected on postgres",
			mutate:  func(s *dwh.CopySource) { s.URI = "gs://bucket/log_data" },
			dialect: dwh.DialectPostgres,
			wantErr: "unsupported scheme",
		},
		{
			name:    "missing bucket",
			mutate:  func(s *dwh.CopySource) { s.URI = "s3:///log_data" },
			dialect: dwh.DialectRedshift,
			wantErr: "has no bucket",
		},
		{
			name:    "malformed role",
			mutate:  func(s *dwh.CopySource) { s.CredentialRole = "dwhRole" },
			dialect: dwh.DialectRedshift,
			wantErr: "credential role",
		},
		{
			name:    "non-role ARN",
			mutate:  func(s *dwh.CopySource) { s.CredentialRole = "arn:aws:s3:::udacity-dend" },
			dialect: dwh.DialectRedshift,
			wantErr: "is not an IAM role ARN",
		},
		{
			name:    "bad region",
			mutate:  func(s *dwh.CopySource) { s.Region = "us-west-2' --" },
			dialect: dwh.DialectRedshift,
			wantErr: "is not an AWS region",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := testEventsSource()
			tt.mutate(&src)

			err := ValidateCopySource(src, tt.dialect)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, dwh.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInsertTables_OrderAndKinds(t *testing.T) {
	stmts := InsertTables(dwh.DialectRedshift)

	assert.Equal(t, []string{"songplays", "users", "songs", "artists", "time"}, tablesOf(stmts))
	for _, s := range stmts {
		assert.Equal(t, dwh.KindInsert, s.Kind)
		assert.True(t, strings.HasPrefix(s.SQL, "INSERT INTO "+s.Table+" ("), s.SQL)
	}
}

func TestInsertTables_SongplaysFiltersNextSong(t *testing.T) {
	sql := InsertTables(dwh.DialectRedshift)[0].SQL

	assert.Contains(t, sql, "SELECT DISTINCT")
	assert.Contains(t, sql, "e.page = 'NextSong'")
	assert.Contains(t, sql, "e.length = s.duration")
	assert.Contains(t, sql, "e.userid IS NOT NULL")

	users := InsertTables(dwh.DialectRedshift)[1].SQL
	assert.Contains(t, users, "WHERE page = 'NextSong'")
}

func TestInsertTables_WeekdayPerDialect(t *testing.T) {
	redshift := InsertTables(dwh.DialectRedshift)[4].SQL
	postgres := InsertTables(dwh.DialectPostgres)[4].SQL

	assert.Contains(t, redshift, "EXTRACT(dayofweek FROM start_time)")
	assert.Contains(t, postgres, "EXTRACT(dow FROM start_time)")
}

func TestCountRows(t *testing.T) {
	stmts := CountRows()

	require.Len(t, stmts, 7)
	assert.Equal(t, []string{
		"staging_events", "staging_songs", "songplays", "users", "songs", "artists", "time",
	}, tablesOf(stmts))
	assert.Equal(t, "SELECT COUNT(*) FROM staging_events", stmts[0].SQL)
	for _, s := range stmts {
		assert.Equal(t, dwh.KindSelect, s.Kind)
	}
}

func TestSequences(t *testing.T) {
	reset := ResetAndCreate(dwh.DialectPostgres)
	assert.Equal(t, SequenceResetAndCreate, reset.Name)
	assert.Len(t, reset.Statements, 14)

	cfg := &dwh.Config{
		IAMRole:   dwh.IAMRoleConfig{ARN: testRole},
		S3:        dwh.S3Config{LogData: "s3://b/log_data", LogJSONPath: "s3://b/paths.json", SongData: "s3://b/song_data", Region: "us-west-2"},
		Warehouse: dwh.WarehouseConfig{Dialect: dwh.DialectRedshift},
	}
	etl, err := LoadAndTransform(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"staging_events", "staging_songs", "songplays", "users", "songs", "artists", "time",
	}, tablesOf(etl.Statements))
	assert.Equal(t, dwh.KindCopy, etl.Statements[0].Kind)
	assert.Equal(t, dwh.KindCopy, etl.Statements[1].Kind)

	cfg.S3.Region = "nowhere"
	_, err = LoadAndTransform(cfg)
	assert.ErrorIs(t, err, dwh.ErrConfiguration)

	assert.Len(t, Analyze().Statements, 7)
}

func TestTableByName(t *testing.T) {
	table, ok := TableByName("time")
	require.True(t, ok)
	assert.Equal(t, []string{"start_time", "hour", "day", "week", "month", "year", "weekday"}, table.ColumnNames())

	_, ok = TableByName("plays")
	assert.False(t, ok)
}
