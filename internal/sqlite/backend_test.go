// Tests for the SQLite catalog backend.
package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mesh-intelligence/internallink/internal/metrics"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

func attachBackend(t *testing.T, dir string, opts ...Option) *Backend {
	t.Helper()
	b := NewBackend(opts...)
	if err := b.Attach(dir); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() { b.Detach() })
	return b
}

func targets(t *testing.T, b *Backend) types.Table {
	t.Helper()
	tbl, err := b.GetTable(types.TargetsTable)
	if err != nil {
		t.Fatalf("GetTable failed: %v", err)
	}
	return tbl
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()
	b := attachBackend(t, tmpDir)

	if _, err := os.Stat(filepath.Join(tmpDir, dbFile)); os.IsNotExist(err) {
		t.Errorf("%s not created", dbFile)
	}
	info, err := os.Stat(filepath.Join(tmpDir, targetsFile))
	if err != nil {
		t.Fatalf("stat %s: %v", targetsFile, err)
	}
	if info.Size() != 0 {
		t.Errorf("expected empty %s, got %d bytes", targetsFile, info.Size())
	}

	if err := b.Attach(tmpDir); err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestBackend_AttachRequiresDir(t *testing.T) {
	b := NewBackend()
	if err := b.Attach(""); !errors.Is(err, types.ErrNoCatalogDir) {
		t.Errorf("expected ErrNoCatalogDir, got %v", err)
	}
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	if err := b.Attach(t.TempDir()); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	tbl, err := b.GetTable(types.TargetsTable)
	if err != nil {
		t.Fatalf("GetTable failed: %v", err)
	}

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Errorf("second Detach should be a no-op, got %v", err)
	}
	if _, err := b.GetTable(types.TargetsTable); err != types.ErrCatalogDetached {
		t.Errorf("expected ErrCatalogDetached from GetTable, got %v", err)
	}
	if _, err := tbl.Get("x"); err != types.ErrCatalogDetached {
		t.Errorf("expected ErrCatalogDetached from a held table, got %v", err)
	}
}

func TestBackend_GetTableUnknown(t *testing.T) {
	b := attachBackend(t, t.TempDir())
	if _, err := b.GetTable("unknown"); err != types.ErrTableNotFound {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

func TestBackend_ReloadsFromJSONL(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	if err := b.Attach(tmpDir); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	id, err := targets(t, b).Set("", &types.LinkTarget{Label: "Javascript"})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}

	b2 := attachBackend(t, tmpDir)
	got, err := targets(t, b2).Get(id)
	if err != nil {
		t.Fatalf("Get after reattach failed: %v", err)
	}
	if label := got.(*types.LinkTarget).Label; label != "Javascript" {
		t.Errorf("expected label Javascript, got %q", label)
	}
}

func TestBackend_LoadSkipsMalformedLines(t *testing.T) {
	tmpDir := t.TempDir()
	content := `{"target_id":"500","label":"Javascript","created_at":"2024-01-01T00:00:00Z"}
not json
{"target_id":"","label":"no id"}
{"target_id":"1001","label":"Vuejs","extra":"ignored"}
{"target_id":"500","label":"duplicate","created_at":"2024-01-02T00:00:00Z"}
`
	if err := os.WriteFile(filepath.Join(tmpDir, targetsFile), []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	b := attachBackend(t, tmpDir)
	all, err := targets(t, b).Fetch(nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(all))
	}
	first := all[0].(*types.LinkTarget)
	if first.TargetID != "500" || first.Label != "Javascript" {
		t.Errorf("unexpected first target %+v", first)
	}
}

func TestBackend_RecordsMetrics(t *testing.T) {
	m := metrics.New(nil)
	b := attachBackend(t, t.TempDir(), WithMetrics(m))

	tbl := targets(t, b)
	if _, err := tbl.Get("missing"); err != types.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := tbl.Set("", &types.LinkTarget{Label: "Vuejs"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if got := testutil.ToFloat64(m.CatalogOperationsTotal.WithLabelValues("get", metrics.StatusError)); got != 1 {
		t.Errorf("expected 1 failed get, got %v", got)
	}
	if got := testutil.ToFloat64(m.CatalogOperationsTotal.WithLabelValues("set", metrics.StatusOK)); got != 1 {
		t.Errorf("expected 1 successful set, got %v", got)
	}
}
