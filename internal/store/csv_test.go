package store

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewCSVStoreLoadsTables(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "Database", "customer.csv"),
		"customer_id, NIK ,name\nC1,317,Siti\nC2,318,Ani\n")
	writeFile(t, filepath.Join(dataDir, "Database", "kehamilan.csv"),
		"id_kehamilan,customer_id,status_kehamilan\nK1,C1,Berjalan\n")

	s, err := NewCSVStore(dataDir, zap.NewNop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	customers := s.Table(domain.TableCustomer)
	if len(customers) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(customers))
	}
	// Header cells are trimmed before they become column keys.
	if customers[0].Get("NIK") != "317" {
		t.Errorf("expected trimmed NIK header, got row %v", customers[0])
	}
	if customers[1].Get("name") != "Ani" {
		t.Errorf("unexpected second row %v", customers[1])
	}

	pregnancies := s.Table(domain.TablePregnancy)
	if len(pregnancies) != 1 || pregnancies[0].Get("status_kehamilan") != "Berjalan" {
		t.Errorf("unexpected pregnancy rows %v", pregnancies)
	}
}

func TestNewCSVStoreMissingFileServesEmptyTable(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "Database", "customer.csv"),
		"customer_id,NIK,name\nC1,317,Siti\n")

	s, err := NewCSVStore(dataDir, zap.NewNop())
	if err != nil {
		t.Fatalf("a missing snapshot must not fail the load: %v", err)
	}

	if rows := s.Table(domain.TableLabResult); len(rows) != 0 {
		t.Errorf("expected empty table for missing file, got %d rows", len(rows))
	}
	if rows := s.Table("tabel_tidak_dikenal"); rows != nil {
		t.Errorf("unknown table must read as nil, got %v", rows)
	}
}

func TestNewCSVStoreShortRows(t *testing.T) {
	dataDir := t.TempDir()
	// The second row is missing its trailing columns.
	writeFile(t, filepath.Join(dataDir, "Database", "customer.csv"),
		"customer_id,NIK,name\nC1,317,Siti\nC2\n")

	s, err := NewCSVStore(dataDir, zap.NewNop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	rows := s.Table(domain.TableCustomer)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Get("customer_id") != "C2" || rows[1].Get("name") != "" {
		t.Errorf("short row must keep present columns and blank the rest: %v", rows[1])
	}
}

func TestLoadIntentExamples(t *testing.T) {
	dataDir := t.TempDir()
	// Columns deliberately out of the usual order, plus a blank row.
	writeFile(t, filepath.Join(dataDir, "intent_merged.csv"),
		"intent,text\n"+
			"cek_golongan_darah,golongan darah saya apa\n"+
			"jadwal_dokter,kapan jadwal dokter\n"+
			",\n")

	examples, err := LoadIntentExamples(dataDir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(examples) != 2 {
		t.Fatalf("expected 2 examples, got %d", len(examples))
	}
	if examples[0].Intent != "cek_golongan_darah" || examples[0].Text != "golongan darah saya apa" {
		t.Errorf("unexpected first example %+v", examples[0])
	}
}

func TestLoadIntentExamplesMissingColumns(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "intent_merged.csv"),
		"kalimat,label\nhalo,umum\n")

	if _, err := LoadIntentExamples(dataDir); err == nil {
		t.Fatal("expected error for missing text/intent columns")
	}
}

func TestLoadIntentExamplesMissingFile(t *testing.T) {
	if _, err := LoadIntentExamples(t.TempDir()); err == nil {
		t.Fatal("expected error for missing corpus file")
	}
}

func TestLoadKnowledge(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "panduan_persiapan_persalinan.txt"), "Panduan lengkap persalinan.")
	writeFile(t, filepath.Join(dataDir, "deskripsi_inten.md"), "| intent | deskripsi |")

	k := LoadKnowledge(dataDir, zap.NewNop())
	if k.PregnancyGuidance != "Panduan lengkap persalinan." {
		t.Errorf("unexpected guidance %q", k.PregnancyGuidance)
	}
	if k.IntentDescriptions != "| intent | deskripsi |" {
		t.Errorf("unexpected descriptions %q", k.IntentDescriptions)
	}
}

func TestLoadKnowledgeMissingFiles(t *testing.T) {
	k := LoadKnowledge(t.TempDir(), zap.NewNop())
	if k.PregnancyGuidance != "" || k.IntentDescriptions != "" {
		t.Errorf("expected empty knowledge for missing files, got %+v", k)
	}
}
