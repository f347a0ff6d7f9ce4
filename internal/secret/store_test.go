package secret

import "testing"

func TestCatalogKey(t *testing.T) {
	tests := []struct {
		driver, host, db, want string
	}{
		{"Postgres", "db.local", "shop", "catalog:postgres@db.local/shop"},
		{"", "", "catalog.db", "catalog:sqlite@/catalog.db"},
	}
	for _, tt := range tests {
		if got := CatalogKey(tt.driver, tt.host, tt.db); got != tt.want {
			t.Errorf("CatalogKey(%q, %q, %q) = %q, want %q", tt.driver, tt.host, tt.db, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	store := NewMemoryStore()
	key := CatalogKey("mysql", "h", "shop")
	store.Set(key, []byte("stored"))

	tests := []struct {
		name     string
		store    SecretStore
		explicit string
		want     string
	}{
		{"explicit wins", store, "env", "env"},
		{"falls back to store", store, "", "stored"},
		{"no store", nil, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.store, key, tt.explicit)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	store.Delete(key)
	if got, _ := Resolve(store, key, ""); got != "" {
		t.Errorf("after delete got %q", got)
	}
}
