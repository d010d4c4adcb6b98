package file

import (
	"os"
	"path/filepath"
	"testing"

	"studio/internal/errors"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestReadCSV tests header mapping and blank-cell handling
func TestReadCSV(t *testing.T) {
	path := writeCSV(t, "name,amount\nwidget,10\ngadget,\n")

	records, err := NewDataReader(path).ReadRecords()
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Records = %d, expected 2", len(records))
	}
	if records[0]["name"] != "widget" || records[0]["amount"] != "10" {
		t.Errorf("First record = %v", records[0])
	}
	if records[1]["amount"] != nil {
		t.Errorf("Blank cell = %v, expected nil", records[1]["amount"])
	}
}

// TestReadCSVRaggedRows tests that short rows pad with nils
func TestReadCSVRaggedRows(t *testing.T) {
	path := writeCSV(t, "a,b,c\n1,2,3\n4,5\n")

	records, err := NewDataReader(path).ReadRecords()
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if records[1]["c"] != nil {
		t.Errorf("Missing trailing cell = %v, expected nil", records[1]["c"])
	}
	if records[1]["b"] != "5" {
		t.Errorf("records[1][b] = %v", records[1]["b"])
	}
}

// TestHeaderFallbacks tests empty and duplicate header handling
func TestHeaderFallbacks(t *testing.T) {
	headers := headerNames([]string{"id", "", "id", " name "})

	expected := []string{"id", "column_2", "id_2", "name"}
	for i, want := range expected {
		if headers[i] != want {
			t.Errorf("Header %d = %q, expected %q", i, headers[i], want)
		}
	}
}

// TestMissingFile tests the unreadable-source error path
func TestMissingFile(t *testing.T) {
	_, err := NewDataReader("/nonexistent/data.csv").ReadRecords()
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}
	if errors.GetCode(err) != errors.CodeSourceUnreadable {
		t.Errorf("Error code = %s, expected %s", errors.GetCode(err), errors.CodeSourceUnreadable)
	}
}

// TestHeaderOnly tests rejection of files with no data rows
func TestHeaderOnly(t *testing.T) {
	path := writeCSV(t, "name,amount\n")
	if _, err := NewDataReader(path).ReadRecords(); err == nil {
		t.Error("Header-only file accepted")
	}
}
