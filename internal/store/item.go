package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/cogcat/internal/itembank"
)

// ItemRepo is the sqlite-backed item bank. It implements itembank.Bank.
type ItemRepo struct {
	db  *sql.DB
	now func() time.Time
}

var _ itembank.Bank = (*ItemRepo)(nil)

var itemColumns = []string{
	"id", "domain", "discrimination", "difficulty", "guessing",
	"min_age_months", "max_age_months", "content", "tags", "active",
}

// upsertBatch bounds the rows per INSERT to stay under SQLite's variable limit.
const upsertBatch = 200

// Upsert inserts items, replacing any existing item with the same id. All
// items are written in one transaction.
func (r *ItemRepo) Upsert(ctx context.Context, items []itembank.TestItem) (int, error) {
	const op = "upsert items"
	if len(items) == 0 {
		return 0, nil
	}
	now := r.now().UTC()

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		for start := 0; start < len(items); start += upsertBatch {
			end := min(start+upsertBatch, len(items))
			q, err := upsertItems(items[start:end], now)
			if err != nil {
				return err
			}
			if _, err := exec(ctx, tx, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, classify(op, err)
	}
	return len(items), nil
}

func upsertItems(items []itembank.TestItem, now time.Time) (*entsql.InsertBuilder, error) {
	cols := make([]string, 0, len(itemColumns)+1)
	cols = append(append(cols, itemColumns...), "created_at")
	q := builder.Insert(tableItems).Columns(cols...)
	for _, it := range items {
		content, err := json.Marshal(it.Content)
		if err != nil {
			return nil, fmt.Errorf("marshal content of %s: %w", it.ID, err)
		}
		var tags any
		if len(it.Tags) > 0 {
			b, err := json.Marshal(it.Tags)
			if err != nil {
				return nil, fmt.Errorf("marshal tags of %s: %w", it.ID, err)
			}
			tags = string(b)
		}
		q.Values(it.ID, string(it.Domain), it.Params.A, it.Params.B, it.Params.C,
			it.MinAgeMonths, it.MaxAgeMonths, string(content), tags, it.Active, now)
	}
	q.OnConflict(
		entsql.ConflictColumns("id"),
		entsql.ResolveWith(func(u *entsql.UpdateSet) {
			for _, c := range itemColumns[1:] {
				u.SetExcluded(c)
			}
		}),
	)
	return q, nil
}

// FindEligible returns active items of domain whose age window overlaps
// [minAge, maxAge], excluding the given ids, ordered by id.
func (r *ItemRepo) FindEligible(ctx context.Context, domain itembank.Domain, minAge, maxAge int, exclude []string) ([]itembank.TestItem, error) {
	preds := []*entsql.Predicate{
		entsql.EQ("domain", string(domain)),
		entsql.EQ("active", true),
		entsql.LTE("min_age_months", maxAge),
		entsql.GTE("max_age_months", minAge),
	}
	if len(exclude) > 0 {
		ids := make([]any, len(exclude))
		for i, id := range exclude {
			ids[i] = id
		}
		preds = append(preds, entsql.NotIn("id", ids...))
	}

	query, args := builder.Select(itemColumns...).
		From(entsql.Table(tableItems)).
		Where(entsql.And(preds...)).
		OrderBy("id").
		Query()
	return r.query(ctx, "find eligible items", query, args)
}

// Get returns the item with id.
func (r *ItemRepo) Get(ctx context.Context, id string) (*itembank.TestItem, error) {
	query, args := builder.Select(itemColumns...).
		From(entsql.Table(tableItems)).
		Where(entsql.EQ("id", id)).
		Query()

	it, err := scanItem(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFoundOr("get item", err, "item %q not found", id)
	}
	return it, nil
}

// List returns items ordered by domain then id. An empty domain lists all.
func (r *ItemRepo) List(ctx context.Context, domain itembank.Domain) ([]itembank.TestItem, error) {
	sel := builder.Select(itemColumns...).
		From(entsql.Table(tableItems)).
		OrderBy("domain", "id")
	if domain != "" {
		sel.Where(entsql.EQ("domain", string(domain)))
	}
	query, args := sel.Query()
	return r.query(ctx, "list items", query, args)
}

// CountByDomain returns the number of active items per domain.
func (r *ItemRepo) CountByDomain(ctx context.Context) (map[itembank.Domain]int, error) {
	query, args := builder.Select("domain", entsql.Count("*")).
		From(entsql.Table(tableItems)).
		Where(entsql.EQ("active", true)).
		GroupBy("domain").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("count items", err)
	}
	defer rows.Close()

	out := make(map[itembank.Domain]int)
	for rows.Next() {
		var d string
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			return nil, classify("scan item count", err)
		}
		out[itembank.Domain(d)] = n
	}
	return out, classify("count items", rows.Err())
}

func (r *ItemRepo) query(ctx context.Context, op, query string, args []any) ([]itembank.TestItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []itembank.TestItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		out = append(out, *it)
	}
	return out, classify(op, rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*itembank.TestItem, error) {
	var (
		it      itembank.TestItem
		domain  string
		content []byte
		tags    []byte
	)
	err := row.Scan(&it.ID, &domain, &it.Params.A, &it.Params.B, &it.Params.C,
		&it.MinAgeMonths, &it.MaxAgeMonths, &content, &tags, &it.Active)
	if err != nil {
		return nil, err
	}
	it.Domain = itembank.Domain(domain)
	if err := json.Unmarshal(content, &it.Content); err != nil {
		return nil, fmt.Errorf("decode content of %s: %w", it.ID, err)
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &it.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of %s: %w", it.ID, err)
		}
	}
	return &it, nil
}
