package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/cogcat/internal/profile"
)

// SnapshotRepo keeps the profile history. It implements profile.SnapshotRepo.
type SnapshotRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var _ profile.SnapshotRepo = (*SnapshotRepo)(nil)

// Save stores snap, assigning its id and global sequence.
func (r *SnapshotRepo) Save(ctx context.Context, snap *profile.Snapshot) error {
	data, err := json.Marshal(snap.Profile)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}

	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return classify("next sequence", err)
	}

	q := builder.Insert(tableSnapshots).
		Columns("child_id", "sequence", "timestamp", "data").
		Values(snap.ChildID, seqNum, snap.Timestamp, string(data))
	res, err := exec(ctx, r.db, q)
	if err != nil {
		return classify("save snapshot", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return classify("save snapshot", err)
	}
	snap.ID = int(id)
	snap.Sequence = seqNum
	return nil
}

// List returns up to limit snapshots of the child, newest first. A limit of
// zero returns all of them.
func (r *SnapshotRepo) List(ctx context.Context, childID string, limit int) ([]profile.Snapshot, error) {
	sel := builder.Select("id", "child_id", "sequence", "timestamp", "data").
		From(entsql.Table(tableSnapshots)).
		Where(entsql.EQ("child_id", childID)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list snapshots", err)
	}
	defer rows.Close()

	var out []profile.Snapshot
	for rows.Next() {
		var (
			s    profile.Snapshot
			data []byte
		)
		if err := rows.Scan(&s.ID, &s.ChildID, &s.Sequence, &s.Timestamp, &data); err != nil {
			return nil, classify("scan snapshot", err)
		}
		if err := json.Unmarshal(data, &s.Profile); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot data: %w", err)
		}
		out = append(out, s)
	}
	return out, classify("list snapshots", rows.Err())
}

// Prune deletes all but the keep most recent snapshots of the child.
func (r *SnapshotRepo) Prune(ctx context.Context, childID string, keep int) error {
	// Find the sequence threshold: the first snapshot past the keep window.
	query, args := builder.Select("sequence").
		From(entsql.Table(tableSnapshots)).
		Where(entsql.EQ("child_id", childID)).
		OrderBy(entsql.Desc("sequence")).
		Offset(keep).
		Limit(1).
		Query()

	var threshold int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&threshold)
	if err == sql.ErrNoRows {
		return nil // fewer than keep snapshots exist
	}
	if err != nil {
		return classify("query snapshots for prune", err)
	}

	q := builder.Delete(tableSnapshots).
		Where(entsql.And(
			entsql.EQ("child_id", childID),
			entsql.LTE("sequence", threshold),
		))
	if _, err := exec(ctx, r.db, q); err != nil {
		return classify("prune snapshots", err)
	}
	return nil
}
