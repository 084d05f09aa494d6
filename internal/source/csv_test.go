package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jgoulah/billchart/pkg/models"
)

func TestLoadCSV(t *testing.T) {
	in := "\ufeffid,Month,year,k_wh_consumption\n" +
		"a, 0,2023,100\n" +
		"b,1,2023,\"1,500\"\n" +
		"c,2\n"

	got, err := LoadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []models.RawRecord{
		{"id": "a", "month": "0", "year": "2023", "k_wh_consumption": "100"},
		{"id": "b", "month": "1", "year": "2023", "k_wh_consumption": "1,500"},
		{"id": "c", "month": "2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadCSV() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCSVAssignsIDs(t *testing.T) {
	got, err := LoadCSV(strings.NewReader("month,year,g_j_consumption\n0,2023,4\n1,2023,5\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("records = %d, want 2", len(got))
	}
	if got[0]["id"] == "" || got[0]["id"] == got[1]["id"] {
		t.Errorf("expected distinct generated ids, got %q and %q", got[0]["id"], got[1]["id"])
	}
}

func TestLoadCSVEmpty(t *testing.T) {
	got, err := LoadCSV(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("records = %v, want none", got)
	}
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "water.csv")
	if err := os.WriteFile(path, []byte("id,month,year,m_3_consumption\nw1,5,2022,12.5\n"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := LoadCSVFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0]["m_3_consumption"] != "12.5" {
		t.Errorf("LoadCSVFile() = %v", got)
	}

	if _, err := LoadCSVFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
