package statements

import (
	"fmt"

	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// nextSongFilter keeps only events that record a song play.
const nextSongFilter = "page = '" + dwh.PageNextSong + "'"

// songplays joins each NextSong event to the song it played on title,
// artist name and exact duration. Rows with a missing key are dropped
// because the fact table declares them NOT NULL.
const insertSongplaysSQL = `INSERT INTO songplays (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
SELECT DISTINCT e.ts, e.userid, e.level, s.song_id, s.artist_id, e.sessionid, e.location, e.useragent
FROM staging_events e
JOIN staging_songs s
  ON e.song = s.title
 AND e.artist = s.artist_name
 AND e.length = s.duration
WHERE e.` + nextSongFilter + `
  AND e.ts IS NOT NULL
  AND e.userid IS NOT NULL
  AND s.song_id IS NOT NULL
  AND s.artist_id IS NOT NULL`

// users keeps the attributes of each user's latest event so a level
// change between free and paid yields a single row.
const insertUsersSQL = `INSERT INTO users (user_id, first_name, last_name, gender, level)
SELECT userid, firstname, lastname, gender, level
FROM (
    SELECT userid, firstname, lastname, gender, level,
           ROW_NUMBER() OVER (PARTITION BY userid ORDER BY ts DESC) AS rn
    FROM staging_events
    WHERE ` + nextSongFilter + `
      AND userid IS NOT NULL
) latest
WHERE rn = 1`

const insertSongsSQL = `INSERT INTO songs (song_id, title, artist_id, year, duration)
SELECT song_id, title, artist_id, year, duration
FROM (
    SELECT song_id, title, artist_id, year, duration,
           ROW_NUMBER() OVER (PARTITION BY song_id ORDER BY year DESC, title) AS rn
    FROM staging_songs
    WHERE song_id IS NOT NULL
) ranked
WHERE rn = 1`

const insertArtistsSQL = `INSERT INTO artists (artist_id, name, location, latitude, longitude)
SELECT artist_id, artist_name, artist_location, artist_latitude, artist_longitude
FROM (
    SELECT artist_id, artist_name, artist_location, artist_latitude, artist_longitude,
           ROW_NUMBER() OVER (PARTITION BY artist_id ORDER BY artist_name) AS rn
    FROM staging_songs
    WHERE artist_id IS NOT NULL
) ranked
WHERE rn = 1`

// time is derived from the fact table, so it must run after songplays.
// Both weekday spellings count Sunday as 0.
const insertTimeSQL = `INSERT INTO time (start_time, hour, day, week, month, year, weekday)
SELECT DISTINCT start_time,
       EXTRACT(hour FROM start_time),
       EXTRACT(day FROM start_time),
       EXTRACT(week FROM start_time),
       EXTRACT(month FROM start_time),
       EXTRACT(year FROM start_time),
       EXTRACT(%s FROM start_time)
FROM songplays`

// InsertTables returns the five transform inserts in execution order:
// songplays, users, songs, artists, time.
func InsertTables(d dwh.Dialect) []dwh.Statement {
	weekday := "dayofweek"
	if d == dwh.DialectPostgres {
		weekday = "dow"
	}

	return []dwh.Statement{
		insert(TableSongplays, insertSongplaysSQL),
		insert(TableUsers, insertUsersSQL),
		insert(TableSongs, insertSongsSQL),
		insert(TableArtists, insertArtistsSQL),
		insert(TableTime, fmt.Sprintf(insertTimeSQL, weekday)),
	}
}

func insert(table, sql string) dwh.Statement {
	return dwh.Statement{
		Kind:  dwh.KindInsert,
		Name:  "insert " + table,
		Table: table,
		SQL:   sql,
	}
}
