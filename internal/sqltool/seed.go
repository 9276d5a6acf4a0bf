package sqltool

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// schema is a small music catalog used when no database exists yet, so the
// SQL tool has something to answer against out of the box.
const schema = `
CREATE TABLE IF NOT EXISTS artists (
	ArtistId INTEGER PRIMARY KEY,
	Name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS albums (
	AlbumId INTEGER PRIMARY KEY,
	Title TEXT NOT NULL,
	ArtistId INTEGER NOT NULL REFERENCES artists(ArtistId)
);
`

var seedArtists = []string{
	"AC/DC", "Accept", "Aerosmith", "Alanis Morissette", "Alice In Chains",
	"Antônio Carlos Jobim", "Apocalyptica", "Audioslave",
}

var seedAlbums = []struct {
	title    string
	artistID int
}{
	{"For Those About To Rock We Salute You", 1},
	{"Let There Be Rock", 1},
	{"Balls to the Wall", 2},
	{"Restless and Wild", 2},
	{"Big Ones", 3},
	{"Jagged Little Pill", 4},
	{"Facelift", 5},
}

// OpenLocal opens (creating if needed) a local database and seeds the music
// schema when it is empty. Unlike Open, the handle is read-write so the
// seed can run; the read-only guard in Query still applies.
func OpenLocal(path string, logger *zap.Logger) (*Executor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := seed(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Executor{db: db, logger: logger}, nil
}

// seed creates the music schema and inserts sample rows if the artists
// table is empty.
func seed(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM artists").Scan(&count); err != nil {
		return fmt.Errorf("failed to check seed state: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for i, name := range seedArtists {
		if _, err := tx.Exec("INSERT INTO artists (ArtistId, Name) VALUES (?, ?)", i+1, name); err != nil {
			return fmt.Errorf("failed to seed artists: %w", err)
		}
	}
	for i, album := range seedAlbums {
		if _, err := tx.Exec("INSERT INTO albums (AlbumId, Title, ArtistId) VALUES (?, ?, ?)",
			i+1, album.title, album.artistID); err != nil {
			return fmt.Errorf("failed to seed albums: %w", err)
		}
	}

	return tx.Commit()
}
