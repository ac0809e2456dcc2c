package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
	bolt "go.etcd.io/bbolt"

	"github.com/sellertools/feedreport/model"
)

// json handles archive index encoding.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// reportsBucket indexes archived reports by filename.
var reportsBucket = []byte("reports")

// ArchiveEntry is one indexed raw report stored by a DirArchive.
type ArchiveEntry struct {
	SubmissionID string           `json:"submission_id"`
	Location     string           `json:"location"`
	Code         model.ResultCode `json:"code"`
	SizeBytes    int              `json:"size_bytes"`
	ArchivedAt   time.Time        `json:"archived_at"`
}

// Archiver persists one raw feed submission result and returns its location.
type Archiver interface {
	Put(ctx context.Context, id model.SubmissionID, raw []byte) (string, error)
}

// DirArchive stores raw reports as files in a directory, with a bolt index
// alongside them.
type DirArchive struct {
	root string
	db   *bolt.DB
}

// NewDirArchive opens an archive directory and its index, creating both when
// missing.
func NewDirArchive(root string) (*DirArchive, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, model.CreateStorageError(err, root)
	}

	db, err := bolt.Open(filepath.Join(root, "index.db"), 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, model.CreateStorageError(err, root)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(reportsBucket)
		return createErr
	})
	if err != nil {
		_ = db.Close()
		return nil, model.CreateStorageError(err, root)
	}

	return &DirArchive{root: root, db: db}, nil
}

// Close releases the index database.
func (a *DirArchive) Close() error {
	return a.db.Close()
}

// Put writes raw to a timestamped file and records it in the index. The
// write goes through a temporary file so a crash never leaves a truncated
// report at the final name.
func (a *DirArchive) Put(ctx context.Context, id model.SubmissionID, raw []byte) (string, error) {
	name := archiveName(id, time.Now().UTC())
	path := filepath.Join(a.root, name)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", model.CreateStorageError(err, tmp).WithSubmissionID(id.String())
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", model.CreateStorageError(err, path).WithSubmissionID(id.String())
	}

	entry := ArchiveEntry{
		SubmissionID: id.String(),
		Location:     path,
		SizeBytes:    len(raw),
		ArchivedAt:   time.Now().UTC(),
	}

	// Index the derived code when the report parses. The raw file is
	// archived either way.
	if summary, err := model.SummarizeRawFeed(raw); err == nil {
		entry.Code = summary.Code
	}

	err := a.db.Update(func(tx *bolt.Tx) error {
		data, marshalErr := json.Marshal(entry)
		if marshalErr != nil {
			return marshalErr
		}
		return tx.Bucket(reportsBucket).Put([]byte(name), data)
	})
	if err != nil {
		return "", model.CreateStorageError(err, path).WithSubmissionID(id.String())
	}

	model.InfoLogWithContext("feed submission result archived", "archive", "archive_feed", id.String(),
		map[string]any{"path": path, "bytes": len(raw)})

	return path, nil
}

// Entries returns the indexed reports, oldest first.
func (a *DirArchive) Entries() ([]ArchiveEntry, error) {
	var entries []ArchiveEntry
	err := a.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(reportsBucket).ForEach(func(_, v []byte) error {
			var entry ArchiveEntry
			if unmarshalErr := json.Unmarshal(v, &entry); unmarshalErr != nil {
				return unmarshalErr
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, model.CreateStorageError(err, a.root)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ArchivedAt.Before(entries[j].ArchivedAt)
	})

	return entries, nil
}

// EntriesForSubmission returns the indexed reports for one submission id,
// oldest first.
func (a *DirArchive) EntriesForSubmission(id model.SubmissionID) ([]ArchiveEntry, error) {
	all, err := a.Entries()
	if err != nil {
		return nil, err
	}

	entries := make([]ArchiveEntry, 0, len(all))
	for _, entry := range all {
		if entry.SubmissionID == id.String() {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// archiveName builds the archived report filename for a submission at a
// point in time.
func archiveName(id model.SubmissionID, at time.Time) string {
	return fmt.Sprintf("%s_%s.xml", id, at.Format("20060102T150405.000"))
}
