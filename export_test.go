package savedit

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
)

func TestSnapshot(t *testing.T) {
	d := openTestDoc(t)
	d.Set("level", uint16(9))

	snap := d.Snapshot()
	if snap.Size != 64 || snap.State != "modified" || snap.Container != "raw" {
		t.Errorf("header = %+v", snap)
	}
	if snap.Hash != d.Hash() || snap.Checksum8 != Checksum8(d.Buffer().Bytes()) {
		t.Error("hash or checksum mismatch")
	}
	if len(snap.Fields) != 3 {
		t.Fatalf("got %d fields", len(snap.Fields))
	}
	money := snap.Fields[0]
	if money.Name != MoneyField || money.Value != int64(1000) || money.Candidate {
		t.Errorf("money = %+v", money)
	}
	if money.Hex != "E8 03 00 00 00 00 00 00" {
		t.Errorf("money hex = %q", money.Hex)
	}
	if snap.Fields[1].Value != "Career" {
		t.Errorf("title = %v", snap.Fields[1].Value)
	}
}

// Fields that fail to decode are reported, not dropped.
func TestSnapshotFieldError(t *testing.T) {
	d := openTestDoc(t)
	d.Define(FieldDescriptor{Name: "tail", Offset: 60, Size: 8, Kind: KindInt64})

	snap := d.Snapshot()
	last := snap.Fields[len(snap.Fields)-1]
	if last.Name != "tail" || last.Error == "" || last.Value != nil || last.Hex != "" {
		t.Errorf("tail = %+v", last)
	}
}

func TestSnapshotMoneyCandidate(t *testing.T) {
	d, _ := New(Config{Fields: []FieldDescriptor{}})
	d.Load(bytes.NewReader(testSave()))

	snap := d.Snapshot()
	if len(snap.Fields) != 1 {
		t.Fatalf("got %d fields", len(snap.Fields))
	}
	if f := snap.Fields[0]; f.Name != MoneyField || !f.Candidate {
		t.Errorf("candidate = %+v", f)
	}
}

func TestExportJSON(t *testing.T) {
	d := openTestDoc(t)
	// A NaN float would make the encoder fail outright.
	d.Define(FieldDescriptor{Name: "ratio", Offset: 56, Size: 4, Kind: KindFloat32})
	d.WriteSlice(56, []byte{0x00, 0x00, 0xC0, 0x7F})

	var out bytes.Buffer
	if err := d.Export(&out); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var got struct {
		Size   int `json:"size"`
		Fields []struct {
			Name  string `json:"name"`
			Kind  string `json:"kind"`
			Value any    `json:"value"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if got.Size != 64 || len(got.Fields) != 4 {
		t.Fatalf("got %+v", got)
	}
	if got.Fields[0].Kind != "int64" || got.Fields[0].Value != float64(1000) {
		t.Errorf("money = %+v", got.Fields[0])
	}
	if got.Fields[3].Name != "ratio" || got.Fields[3].Value != "NaN" {
		t.Errorf("ratio = %+v", got.Fields[3])
	}
}

func TestExportFile(t *testing.T) {
	d := openTestDoc(t)
	path := filepath.Join(t.TempDir(), "career.json")
	if err := d.ExportFile(path); err != nil {
		t.Fatalf("ExportFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Errorf("invalid JSON:\n%s", data)
	}
}
