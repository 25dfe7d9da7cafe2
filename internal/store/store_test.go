package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cogcat/internal/apperr"
	"github.com/abhisek/cogcat/internal/assessment"
	"github.com/abhisek/cogcat/internal/irt"
	"github.com/abhisek/cogcat/internal/itembank"
	"github.com/abhisek/cogcat/internal/profile"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func addChild(t *testing.T, s *Store, name string, dob time.Time) *Child {
	t.Helper()
	c := &Child{Name: name, DateOfBirth: dob}
	require.NoError(t, s.Children().Create(context.Background(), c))
	return c
}

func mathItem(id string, b float64, minAge, maxAge int) itembank.TestItem {
	return itembank.TestItem{
		ID:           id,
		Domain:       itembank.DomainMath,
		Params:       irt.ItemParams{A: 1.2, B: b, C: 0.2},
		MinAgeMonths: minAge,
		MaxAgeMonths: maxAge,
		Active:       true,
		Tags:         []string{"counting"},
		Content: itembank.Content{
			Type:          "multiple_choice",
			Prompt:        "How many?",
			Options:       []itembank.Option{{ID: "a", Label: "3"}, {ID: "b", Label: "4"}},
			CorrectAnswer: itembank.ScalarAnswer("b"),
		},
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range Tables {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table.Name,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table.Name, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestChildRepo(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Children()

	ada := addChild(t, s, "Ada", time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.NotEmpty(t, ada.ID)

	got, err := repo.Get(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.True(t, got.DateOfBirth.Equal(ada.DateOfBirth))

	byName, err := repo.Lookup(ctx, "Ada")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, byName.ID)

	// 1826 days since birth.
	age, err := repo.AgeMonths(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, age)

	_, err = repo.AgeMonths(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = repo.Create(ctx, &Child{Name: "Later", DateOfBirth: testNow.AddDate(0, 0, 1)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	err = repo.Create(ctx, &Child{Name: " ", DateOfBirth: testNow})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	err = repo.Create(ctx, &Child{ID: ada.ID, Name: "Dup", DateOfBirth: testNow})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	addChild(t, s, "Bea", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ada", all[0].Name)
}

func TestAgeInMonths(t *testing.T) {
	dob := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2020, 1, 30, 23, 0, 0, 0, time.UTC), 0},
		{time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2019, 12, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		if got := AgeInMonths(dob, tt.now); got != tt.want {
			t.Errorf("AgeInMonths(%s) = %d, want %d", tt.now.Format(time.DateOnly), got, tt.want)
		}
	}
}

func TestItemRepo(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Items()

	inactive := mathItem("m-4", 0, 48, 72)
	inactive.Active = false
	logic := mathItem("l-1", 0, 48, 72)
	logic.Domain = itembank.DomainLogic

	n, err := repo.Upsert(ctx, []itembank.TestItem{
		mathItem("m-2", 0.5, 48, 72),
		mathItem("m-1", -0.5, 60, 60),
		mathItem("m-3", 1.0, 70, 90),
		inactive,
		logic,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	got, err := repo.Get(ctx, "m-2")
	require.NoError(t, err)
	assert.Equal(t, irt.ItemParams{A: 1.2, B: 0.5, C: 0.2}, got.Params)
	assert.Equal(t, itembank.ScalarAnswer("b"), got.Content.CorrectAnswer)
	assert.Equal(t, []string{"counting"}, got.Tags)
	assert.Len(t, got.Content.Options, 2)

	_, err = repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	eligible, err := repo.FindEligible(ctx, itembank.DomainMath, 60, 60, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"m-1", "m-2"}, itemIDs(eligible))

	eligible, err = repo.FindEligible(ctx, itembank.DomainMath, 54, 74, []string{"m-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m-2", "m-3"}, itemIDs(eligible))

	// Re-import replaces the calibration.
	updated := mathItem("m-2", 2.0, 48, 72)
	_, err = repo.Upsert(ctx, []itembank.TestItem{updated})
	require.NoError(t, err)
	got, err = repo.Get(ctx, "m-2")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Params.B)

	counts, err := repo.CountByDomain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[itembank.DomainMath])
	assert.Equal(t, 1, counts[itembank.DomainLogic])

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
	logicOnly, err := repo.List(ctx, itembank.DomainLogic)
	require.NoError(t, err)
	assert.Equal(t, []string{"l-1"}, itemIDs(logicOnly))
}

func TestItemRepo_SelectorWidening(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.Items().Upsert(ctx, []itembank.TestItem{
		mathItem("near", 0, 62, 70),
		mathItem("used", 0, 62, 70),
	})
	require.NoError(t, err)

	sel := itembank.NewSelector(s.Items(), 6, nil)
	got, err := sel.SelectNext(ctx, 0, 58, itembank.DomainMath, map[string]bool{"used": true})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "near", got.ID)

	got, err = sel.SelectNext(ctx, 0, 58, itembank.DomainMath, map[string]bool{"used": true, "near": true})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func itemIDs(items []itembank.TestItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func newTestSession(t *testing.T, s *Store, childID, id string, at time.Time) *assessment.Session {
	t.Helper()
	sess := &assessment.Session{
		ID:        id,
		ChildID:   childID,
		Domain:    itembank.DomainMath,
		Theta:     0,
		SE:        1,
		Status:    assessment.StatusInProgress,
		StartedAt: at,
	}
	require.NoError(t, s.Sessions().Create(context.Background(), sess))
	return sess
}

func response(sessionID, itemID string, seq int) *assessment.ResponseRecord {
	return &assessment.ResponseRecord{
		ID:             fmt.Sprintf("%s-r%d", sessionID, seq),
		AssessmentID:   sessionID,
		ItemID:         itemID,
		Response:       itembank.ListAnswer("x", "y"),
		IsCorrect:      true,
		ReactionTimeMs: 1200,
		ThetaBefore:    0,
		ThetaAfter:     0.4,
		SEBefore:       1,
		SEAfter:        0.8,
		ItemSequence:   seq,
		CreatedAt:      testNow,
	}
}

func TestSessionRepo(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Sessions()
	kid := addChild(t, s, "Kid", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))

	older := newTestSession(t, s, kid.ID, "s-1", testNow.Add(-time.Hour))
	newer := newTestSession(t, s, kid.ID, "s-2", testNow)

	err := repo.AppendResponse(ctx, response(older.ID, "i-1", 1), assessment.SessionUpdate{
		Theta: 0.4, SE: 0.8, ItemsAdministered: 1, ExpectedItems: 0,
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ItemsAdministered)
	assert.InDelta(t, 0.4, got.Theta, 1e-12)
	assert.Nil(t, got.Percentile)

	// Stale expected count is rejected and nothing is inserted.
	err = repo.AppendResponse(ctx, response(older.ID, "i-2", 2), assessment.SessionUpdate{
		Theta: 0.1, SE: 0.7, ItemsAdministered: 2, ExpectedItems: 0,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	// Same item twice violates the unique index and rolls back the update.
	err = repo.AppendResponse(ctx, response(older.ID, "i-1", 2), assessment.SessionUpdate{
		Theta: 0.1, SE: 0.7, ItemsAdministered: 2, ExpectedItems: 1,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	got, err = repo.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ItemsAdministered)

	records, err := repo.Responses(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, itembank.ListAnswer("x", "y"), records[0].Response)
	assert.Equal(t, 1200, records[0].ReactionTimeMs)

	err = repo.AppendResponse(ctx, response(older.ID, "i-2", 2), assessment.SessionUpdate{
		Theta: 0.9, SE: 0.29, ItemsAdministered: 2, ExpectedItems: 1,
		Completion: &assessment.Completion{
			Reason: assessment.StopMinSE, RawScore: 65, Percentile: 82, CompletedAt: testNow,
		},
	})
	require.NoError(t, err)
	got, err = repo.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, assessment.StatusCompleted, got.Status)
	assert.Equal(t, assessment.StopMinSE, got.StoppingReason)
	assert.Equal(t, 2, got.ItemsAdministered)
	require.NotNil(t, got.Percentile)
	assert.Equal(t, 82, *got.Percentile)
	require.NotNil(t, got.CompletedAt)

	// The completion folded the final theta into the child's profile.
	p, err := s.Profiles().Get(ctx, kid.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, p.Domains[itembank.DomainMath].Score, 1e-12)
	assert.Equal(t, 82, p.Domains[itembank.DomainMath].Percentile)
	require.NotNil(t, p.CompositeScore)
	assert.InDelta(t, 0.9, *p.CompositeScore, 1e-12)

	err = repo.AppendResponse(ctx, response(older.ID, "i-3", 3), assessment.SessionUpdate{
		ItemsAdministered: 3, ExpectedItems: 2,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidState, "completed sessions take no responses")

	list, err := repo.ListByChild(ctx, kid.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	counts, err := repo.StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[itembank.DomainMath][assessment.StatusCompleted])
	assert.Equal(t, 1, counts[itembank.DomainMath][assessment.StatusInProgress])
}

func TestSessionRepo_FailedCompletionRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Sessions()
	kid := addChild(t, s, "Kid", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	sess := newTestSession(t, s, kid.ID, "s-1", testNow)

	require.NoError(t, repo.AppendResponse(ctx, response(sess.ID, "i-1", 1), assessment.SessionUpdate{
		Theta: 0.4, SE: 0.8, ItemsAdministered: 1, ExpectedItems: 0,
	}))

	// A duplicate item fails the insert after the session row was updated.
	err := repo.AppendResponse(ctx, response(sess.ID, "i-1", 2), assessment.SessionUpdate{
		Theta: 1.1, SE: 0.3, ItemsAdministered: 2, ExpectedItems: 1,
		Completion: &assessment.Completion{Reason: assessment.StopNoItems, RawScore: 68, Percentile: 86, CompletedAt: testNow},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := repo.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, assessment.StatusInProgress, got.Status)
	assert.Equal(t, 1, got.ItemsAdministered)
	assert.Nil(t, got.Percentile)

	_, err = s.Profiles().Get(ctx, kid.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "no profile without a committed completion")
}

func TestSessionRepo_UnknownChild(t *testing.T) {
	s := openTestStore(t)
	err := s.Sessions().Create(context.Background(), &assessment.Session{
		ID: "s", ChildID: "ghost", Domain: itembank.DomainMath, Status: assessment.StatusInProgress, StartedAt: testNow,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProfileRepo(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	kid := addChild(t, s, "Kid", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	agg := profile.NewAggregator(s.Profiles(),
		profile.WithSnapshots(s.Snapshots(), 2),
		profile.WithClock(func() time.Time { return testNow }))

	_, err := agg.Get(ctx, kid.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = agg.Update(ctx, kid.ID, itembank.DomainMath, 0.8, 79)
	require.NoError(t, err)
	_, err = agg.Update(ctx, kid.ID, itembank.DomainLogic, 0.6, 73)
	require.NoError(t, err)
	_, err = agg.Update(ctx, kid.ID, itembank.DomainVerbal, 0.4, 66)
	require.NoError(t, err)

	p, err := agg.Get(ctx, kid.ID)
	require.NoError(t, err)
	require.Len(t, p.Domains, 3)
	assert.Equal(t, 79, p.Domains[itembank.DomainMath].Percentile)
	require.NotNil(t, p.CompositeScore)
	assert.InDelta(t, 0.6, *p.CompositeScore, 1e-9)
	assert.Equal(t, []itembank.Domain{itembank.DomainMath, itembank.DomainLogic}, p.Strengths)
	assert.Equal(t, []itembank.Domain{itembank.DomainVerbal}, p.GrowthAreas)

	// Re-testing overwrites the domain score.
	_, err = agg.Update(ctx, kid.ID, itembank.DomainMath, -1.0, 16)
	require.NoError(t, err)
	p, err = agg.Get(ctx, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, -1.0, p.Domains[itembank.DomainMath].Score)

	history, err := agg.History(ctx, kid.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2, "pruned to keep")
	assert.Greater(t, history[0].Sequence, history[1].Sequence)
	assert.Equal(t, -1.0, history[0].Profile.Domains[itembank.DomainMath].Score)
}

func TestSnapshotPruneWithFewerThanKeep(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Snapshots()

	for i := 0; i < 3; i++ {
		snap := &profile.Snapshot{ChildID: "kid", Timestamp: testNow, Profile: profile.CognitiveProfile{ChildID: "kid"}}
		require.NoError(t, repo.Save(ctx, snap))
		assert.NotZero(t, snap.ID)
	}
	require.NoError(t, repo.Prune(ctx, "kid", 5))
	list, err := repo.List(ctx, "kid", 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	require.NoError(t, repo.Prune(ctx, "kid", 1))
	list, err = repo.List(ctx, "kid", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEventRepo(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Events()

	yes, no := true, false
	events := []assessment.Event{
		{Kind: assessment.EventStarted, AssessmentID: "a1", ChildID: "c", Domain: itembank.DomainMath},
		{Kind: assessment.EventResponded, AssessmentID: "a1", ChildID: "c", Domain: itembank.DomainMath, ItemID: "i1", ItemSequence: 1, Correct: &yes},
		{Kind: assessment.EventResponded, AssessmentID: "a1", ChildID: "c", Domain: itembank.DomainMath, ItemID: "i2", ItemSequence: 2, Correct: &no},
		{Kind: assessment.EventCompleted, AssessmentID: "a1", ChildID: "c", Domain: itembank.DomainMath, StoppingReason: assessment.StopNoItems},
		{Kind: assessment.EventStarted, AssessmentID: "a2", ChildID: "c", Domain: itembank.DomainLogic},
	}
	for _, ev := range events {
		require.NoError(t, repo.AppendAssessmentEvent(ctx, ev))
	}

	recs, err := repo.QueryAssessmentEvents(ctx, QueryOpts{AssessmentID: "a1"})
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, assessment.EventCompleted, recs[0].Kind)
	assert.Equal(t, assessment.StopNoItems, recs[0].StoppingReason)
	require.NotNil(t, recs[2].Correct)
	assert.True(t, *recs[2].Correct)

	recent, err := repo.QueryAssessmentEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "a2", recent[0].AssessmentID)

	after, err := repo.QueryAssessmentEvents(ctx, QueryOpts{After: recent[1].Sequence})
	require.NoError(t, err)
	assert.Len(t, after, 1)

	st, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Started[itembank.DomainMath])
	assert.Equal(t, 1, st.Started[itembank.DomainLogic])
	assert.Equal(t, 1, st.Completed[assessment.StopNoItems])
	assert.Equal(t, 2, st.Responses)
	assert.Equal(t, 1, st.Correct)
	assert.True(t, st.LastEventAt.Equal(testNow))
}

func newStoreEngine(t *testing.T, s *Store) *assessment.Engine {
	t.Helper()
	engine, err := assessment.NewEngine(assessment.DefaultConfig(), assessment.Deps{
		Children: s.Children(),
		Bank:     s.Items(),
		Sessions: s.Sessions(),
		Profiles: profile.NewAggregator(s.Profiles(), profile.WithSnapshots(s.Snapshots(), 0)),
		Events:   s.Events(),
	})
	require.NoError(t, err)
	return engine
}

func TestEngineOverStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	kid := addChild(t, s, "Kid", time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC))

	var items []itembank.TestItem
	for i := 0; i < 4; i++ {
		items = append(items, mathItem(fmt.Sprintf("m-%d", i), float64(i)/4, 48, 72))
	}
	_, err := s.Items().Upsert(ctx, items)
	require.NoError(t, err)

	engine := newStoreEngine(t, s)
	start, err := engine.Start(ctx, kid.ID, itembank.DomainMath)
	require.NoError(t, err)

	item := start.FirstItem
	var res *assessment.RespondResult
	for item != nil {
		res, err = engine.Respond(ctx, start.Session.ID, item.ID, itembank.ScalarAnswer("b"), 700)
		require.NoError(t, err)
		item = res.NextItem
	}
	assert.True(t, res.IsComplete)
	assert.Equal(t, assessment.StopNoItems, res.StoppingReason)

	sess, err := engine.Get(ctx, start.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, sess.ItemsAdministered)
	assert.Equal(t, assessment.StatusCompleted, sess.Status)

	p, err := s.Profiles().Get(ctx, kid.ID)
	require.NoError(t, err)
	assert.InDelta(t, sess.Theta, p.Domains[itembank.DomainMath].Score, 1e-12)
	require.NotNil(t, p.CompositePercentile)
	assert.Equal(t, irt.Percentile(sess.Theta), *p.CompositePercentile)

	snaps, err := s.Snapshots().List(ctx, kid.ID, 0)
	require.NoError(t, err)
	assert.Len(t, snaps, 1, "completion records one history entry")

	st, err := s.Events().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Responses)
	assert.Equal(t, 1, st.Completed[assessment.StopNoItems])
}

func TestEngineOverStore_ConcurrentResponds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	kid := addChild(t, s, "Kid", time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC))
	var items []itembank.TestItem
	for i := 0; i < 12; i++ {
		items = append(items, mathItem(fmt.Sprintf("m-%02d", i), 0, 48, 72))
	}
	_, err := s.Items().Upsert(ctx, items)
	require.NoError(t, err)

	engine := newStoreEngine(t, s)
	start, err := engine.Start(ctx, kid.ID, itembank.DomainMath)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Respond(ctx, start.Session.ID, fmt.Sprintf("m-%02d", i), itembank.ScalarAnswer("a"), 100)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	records, err := engine.Transcript(ctx, start.Session.ID)
	require.NoError(t, err)
	require.Len(t, records, 6)
	for i, r := range records {
		assert.Equal(t, i+1, r.ItemSequence)
	}
	for i := 1; i < len(records); i++ {
		assert.Equal(t, records[i-1].ThetaAfter, records[i].ThetaBefore)
	}
}
