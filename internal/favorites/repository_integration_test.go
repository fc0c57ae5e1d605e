//go:build integration

package favorites

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/lib/pq"

	"github.com/cozycove/cozycove/internal/testutil"
)

func newFavoritesTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	resetFavoritesDirectly(t, ctx, db)

	return ctx, NewRepository(db)
}

func resetFavoritesDirectly(t *testing.T, ctx context.Context, db *sql.DB) {
	t.Helper()

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("ProjectRoot failed: %v", err)
	}

	for _, name := range []string{"000003_favorites.down.sql", "000003_favorites.up.sql"} {
		raw, err := os.ReadFile(filepath.Join(root, "migrations", name))
		if err != nil {
			t.Fatalf("read migration %s: %v", name, err)
		}
		if _, err := db.ExecContext(ctx, string(raw)); err != nil {
			t.Fatalf("apply migration %s: %v", name, err)
		}
	}
}

func TestIntegrationFavorites_SaveAndIsSaved(t *testing.T) {
	ctx, repo := newFavoritesTestEnv(t)

	userID := testutil.UniqueID("user")
	productID := testutil.UniqueID("product")

	if err := repo.Save(ctx, userID, productID); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	saved, err := repo.IsSaved(ctx, userID, productID)
	if err != nil {
		t.Fatalf("IsSaved failed: %v", err)
	}
	if !saved {
		t.Error("product should be saved")
	}
}

func TestIntegrationFavorites_DoubleSave(t *testing.T) {
	ctx, repo := newFavoritesTestEnv(t)

	userID := testutil.UniqueID("user")
	productID := testutil.UniqueID("product")

	if err := repo.Save(ctx, userID, productID); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	err := repo.Save(ctx, userID, productID)
	if !errors.Is(err, ErrAlreadySaved) {
		t.Errorf("second Save = %v, want ErrAlreadySaved", err)
	}
}

func TestIntegrationFavorites_Remove(t *testing.T) {
	ctx, repo := newFavoritesTestEnv(t)

	userID := testutil.UniqueID("user")
	productID := testutil.UniqueID("product")

	if err := repo.Save(ctx, userID, productID); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.Remove(ctx, userID, productID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	saved, err := repo.IsSaved(ctx, userID, productID)
	if err != nil {
		t.Fatalf("IsSaved failed: %v", err)
	}
	if saved {
		t.Error("product should no longer be saved")
	}

	err = repo.Remove(ctx, userID, productID)
	if !errors.Is(err, ErrNotSaved) {
		t.Errorf("second Remove = %v, want ErrNotSaved", err)
	}
}

func TestIntegrationFavorites_ListAndCount(t *testing.T) {
	ctx, repo := newFavoritesTestEnv(t)

	userID := testutil.UniqueID("user")
	first := testutil.UniqueID("product-a")
	second := testutil.UniqueID("product-b")

	if err := repo.Save(ctx, userID, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.Save(ctx, userID, second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	favorites, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(favorites) != 2 {
		t.Fatalf("ListByUser returned %d favorites, want 2", len(favorites))
	}

	counts, err := repo.CountByProductIDs(ctx, []string{first, second, "never-saved"})
	if err != nil {
		t.Fatalf("CountByProductIDs failed: %v", err)
	}
	if counts[first] != 1 || counts[second] != 1 {
		t.Errorf("counts = %v, want 1 for each saved product", counts)
	}
	if _, ok := counts["never-saved"]; ok {
		t.Error("unsaved products should be absent from the map")
	}
}
