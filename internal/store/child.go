package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/cogcat/internal/apperr"
)

// Child is a registered test taker.
type Child struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	DateOfBirth time.Time `json:"date_of_birth" yaml:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

// ChildRepo stores children and resolves their age.
type ChildRepo struct {
	db  *sql.DB
	now func() time.Time
}

var childColumns = []string{"id", "name", "date_of_birth", "created_at"}

// Create registers c, assigning an id when empty.
func (r *ChildRepo) Create(ctx context.Context, c *Child) error {
	const op = "create child"
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperr.Validation(op, "name is required")
	}
	if c.DateOfBirth.IsZero() {
		return apperr.Validation(op, "date of birth is required")
	}
	if c.DateOfBirth.After(r.now()) {
		return apperr.Validation(op, "date of birth %s is in the future", c.DateOfBirth.Format(time.DateOnly))
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.DateOfBirth = dateOnly(c.DateOfBirth)
	c.CreatedAt = r.now().UTC()

	q := builder.Insert(tableChildren).
		Columns(childColumns...).
		Values(c.ID, c.Name, c.DateOfBirth, c.CreatedAt)
	if _, err := exec(ctx, r.db, q); err != nil {
		return classify(op, err)
	}
	return nil
}

// Get returns the child with id.
func (r *ChildRepo) Get(ctx context.Context, id string) (*Child, error) {
	return r.getBy(ctx, "id", id)
}

// Lookup resolves ref as an id first, then as an exact name.
func (r *ChildRepo) Lookup(ctx context.Context, ref string) (*Child, error) {
	c, err := r.getBy(ctx, "id", ref)
	if err == nil || apperr.KindOf(err) != apperr.KindNotFound {
		return c, err
	}
	return r.getBy(ctx, "name", ref)
}

func (r *ChildRepo) getBy(ctx context.Context, column, value string) (*Child, error) {
	query, args := builder.Select(childColumns...).
		From(entsql.Table(tableChildren)).
		Where(entsql.EQ(column, value)).
		OrderBy("created_at").
		Limit(1).
		Query()

	var c Child
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.Name, &c.DateOfBirth, &c.CreatedAt)
	if err != nil {
		return nil, notFoundOr("get child", err, "child %q not found", value)
	}
	return &c, nil
}

// List returns every child ordered by name.
func (r *ChildRepo) List(ctx context.Context) ([]Child, error) {
	query, args := builder.Select(childColumns...).
		From(entsql.Table(tableChildren)).
		OrderBy("name", "created_at").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list children", err)
	}
	defer rows.Close()

	var out []Child
	for rows.Next() {
		var c Child
		if err := rows.Scan(&c.ID, &c.Name, &c.DateOfBirth, &c.CreatedAt); err != nil {
			return nil, classify("scan child", err)
		}
		out = append(out, c)
	}
	return out, classify("list children", rows.Err())
}

// AgeMonths returns the child's age as whole days since birth divided by 30.
func (r *ChildRepo) AgeMonths(ctx context.Context, childID string) (int, error) {
	c, err := r.Get(ctx, childID)
	if err != nil {
		return 0, err
	}
	return AgeInMonths(c.DateOfBirth, r.now()), nil
}

// AgeInMonths counts 30-day months between dob and now. It never returns a
// negative age.
func AgeInMonths(dob, now time.Time) int {
	days := int(dateOnly(now).Sub(dateOnly(dob)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / 30
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
