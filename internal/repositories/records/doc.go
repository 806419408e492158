// Package records persists capture records on the device.
//
// # Overview
//
// Repository describes the operations the sync engine and the CLI need:
// upsert by id, update of an existing row, full listing, lookup, the retry queue and deletion. The
// SQLite implementation (SQLiteRepository) works over a dbx.DBTX, so it can be
// bound to an *sql.DB or to an *sql.Tx when several writes must land together
// (see storage.Reset).
//
// # Data Model
//
// One row per record. Images and their fingerprints are stored as JSON arrays
// in two TEXT columns, which keeps a record a single row: every Save or Update
// replaces the whole row, and a reader never sees a half-updated record.
// Update only touches rows that still exist, so state changes recorded after
// a slow send cannot bring back a record the user deleted.
//
// Typical Usage
//
//	repo := records.NewSQLiteRepository(db)
//	_ = repo.Save(ctx, rec)
//	all, _ := repo.GetAll(ctx)
//	queue, _ := repo.GetNeedingRetry(ctx)
//	_ = repo.Delete(ctx, rec.ID)
package records
