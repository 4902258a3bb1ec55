// Tests for JSONL persistence, import and export.
package sqlite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/internallink/pkg/types"
)

func TestWriteJSONLIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	if err := writeJSONL(path, nil); err != nil {
		t.Fatalf("writeJSONL failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.jsonl" {
		t.Errorf("expected only out.jsonl, found %v", entries)
	}
}

func TestTargetPersistedToJSONL(t *testing.T) {
	tmpDir := t.TempDir()
	tbl := targets(t, attachBackend(t, tmpDir))

	if _, err := tbl.Set("500", &types.LinkTarget{Label: "Javascript"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, targetsFile))
	if err != nil {
		t.Fatalf("reading %s: %v", targetsFile, err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.Contains(line, `"target_id":"500"`) || !strings.Contains(line, `"label":"Javascript"`) {
		t.Errorf("unexpected JSONL content: %s", line)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := attachBackend(t, t.TempDir())
	srcTbl := targets(t, src)
	for id, label := range map[string]string{"500": "Javascript", "1001": "Vuejs"} {
		if _, err := srcTbl.Set(id, &types.LinkTarget{Label: label}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	exportPath := filepath.Join(t.TempDir(), "targets.jsonl")
	n, err := src.Export(exportPath)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 exported targets, got %d", n)
	}

	dstDir := t.TempDir()
	dst := attachBackend(t, dstDir)
	n, err = dst.Import(exportPath)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 imported targets, got %d", n)
	}

	got, err := targets(t, dst).Get("1001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if label := got.(*types.LinkTarget).Label; label != "Vuejs" {
		t.Errorf("expected Vuejs, got %q", label)
	}

	// Imported targets are persisted to the destination catalog.
	data, err := os.ReadFile(filepath.Join(dstDir, targetsFile))
	if err != nil {
		t.Fatalf("reading %s: %v", targetsFile, err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 2 {
		t.Errorf("expected 2 persisted lines, got %d", lines)
	}
}

func TestImportSkipsInvalidRecords(t *testing.T) {
	b := attachBackend(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "in.jsonl")
	content := "{\"target_id\":\"7\",\"label\":\"Seven\"}\n{broken\n{\"target_id\":\"8\"}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	n, err := b.Import(path)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 imported target, got %d", n)
	}
}

func TestImportDetached(t *testing.T) {
	b := NewBackend()
	if _, err := b.Import("whatever.jsonl"); err != types.ErrCatalogDetached {
		t.Errorf("expected ErrCatalogDetached, got %v", err)
	}
	if _, err := b.Export("whatever.jsonl"); err != types.ErrCatalogDetached {
		t.Errorf("expected ErrCatalogDetached, got %v", err)
	}
}
