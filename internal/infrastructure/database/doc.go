// Package database provides the SQLite store behind the renderer
// catalogue and the play log.
//
// Open configures WAL mode and a busy timeout and restricts the file to
// its owner. Migrate applies forward-only .sql migrations from any fs.FS,
// normally the embedded migrations package:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// All queries use parameterised statements.
package database
