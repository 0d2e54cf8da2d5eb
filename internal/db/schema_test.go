package db

import "testing"

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCapabilities_AfterMigrate(t *testing.T) {
	store := testStore(t)
	caps := store.Capabilities()

	if !caps.HasDisplayOrder {
		t.Error("HasDisplayOrder = false after full migration")
	}
	if !caps.HasDisplayLabels {
		t.Error("HasDisplayLabels = false after full migration")
	}
	for _, table := range []string{"campaign_mappings", "facts_google_ads", "facts_bing_ads", "facts_affiliate", "facts_analytics"} {
		if !caps.HasTable(table) {
			t.Errorf("HasTable(%q) = false", table)
		}
	}
	if caps.HasTable("facts_nonexistent") {
		t.Error("HasTable reports a table that does not exist")
	}
}

func TestRefresh_SeesDroppedTable(t *testing.T) {
	store := testStore(t)

	if _, err := store.DB.Exec(`DROP TABLE facts_bing_ads`); err != nil {
		t.Fatal(err)
	}
	if err := store.Refresh(); err != nil {
		t.Fatal(err)
	}
	if store.Capabilities().HasTable("facts_bing_ads") {
		t.Error("snapshot still reports dropped table")
	}
}

func TestEnsureColumn_CreatesOnceAndRefreshes(t *testing.T) {
	store := testStore(t)
	if _, err := store.DB.Exec(`CREATE TABLE widgets (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := store.EnsureColumn("widgets", "rank", "INTEGER NOT NULL DEFAULT 0"); err != nil {
			t.Fatalf("ensure %d: %v", i, err)
		}
	}

	exists, err := columnExists(store.DB, "widgets", "rank")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("rank column missing after EnsureColumn")
	}
	if !store.Capabilities().HasTable("widgets") {
		t.Error("snapshot not refreshed after EnsureColumn")
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"database is locked (5) (SQLITE_BUSY)", true},
		{"driver: bad connection", true},
		{"UNIQUE constraint failed: campaign_mappings.source_system", false},
		{"no such table: facts_bing_ads", false},
	}
	for _, tc := range cases {
		if got := isTransient(errString(tc.msg)); got != tc.want {
			t.Errorf("isTransient(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
	if isTransient(nil) {
		t.Error("isTransient(nil) = true")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
