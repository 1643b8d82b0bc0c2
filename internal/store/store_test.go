package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"riskline/internal/db"
	"riskline/internal/migrate"
)

func testStore(t *testing.T) Store {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatal(err)
	}
	return Store{DB: conn}
}

func TestSaveAndGetRun(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	saved, err := st.SaveRun(ctx, Run{
		Source:        "tasks_in_trees.json",
		Collection:    "my.collection",
		PlaybookTotal: 2,
		RoleTotal:     3,
		RoleRisk:      1,
		Report:        json.RawMessage(`{"summary":{}}`),
		Narrative:     "report text",
	})
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID == "" || saved.CreatedAt == "" {
		t.Fatalf("id/timestamp not assigned: %+v", saved)
	}

	got, err := st.GetRun(ctx, saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != "tasks_in_trees.json" || got.Collection != "my.collection" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.RoleTotal != 3 || got.RoleRisk != 1 {
		t.Errorf("counts mismatch: %+v", got)
	}
	if string(got.Report) != `{"summary":{}}` {
		t.Errorf("report = %s", got.Report)
	}
	if got.Narrative != "report text" {
		t.Errorf("narrative = %q", got.Narrative)
	}
}

func TestGetRunNotFound(t *testing.T) {
	st := testStore(t)
	_, err := st.GetRun(context.Background(), "no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListRuns(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		st.Now = func() time.Time { return ts }
		if _, err := st.SaveRun(ctx, Run{Source: "run", Narrative: "n"}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := st.ListRuns(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].CreatedAt < runs[1].CreatedAt {
		t.Errorf("runs not newest-first: %q then %q", runs[0].CreatedAt, runs[1].CreatedAt)
	}
	if runs[0].Report != nil {
		t.Error("list included report body")
	}

	all, err := st.ListRuns(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("default limit runs = %d, want 3", len(all))
	}
}

func TestSaveRunNullableFields(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	saved, err := st.SaveRun(ctx, Run{Narrative: "n"})
	if err != nil {
		t.Fatal(err)
	}
	var source, collection sql.NullString
	row := st.DB.QueryRowContext(ctx, `SELECT source, collection FROM runs WHERE id=?`, saved.ID)
	if err := row.Scan(&source, &collection); err != nil {
		t.Fatal(err)
	}
	if source.Valid || collection.Valid {
		t.Errorf("empty strings stored non-null: %+v %+v", source, collection)
	}
}
