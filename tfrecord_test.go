package foodprep

import (
	"os"
	"path/filepath"
	"testing"
)

func createLabelledEntries(t *testing.T, dir string) []ManifestEntry {
	t.Helper()
	return []ManifestEntry{
		{
			Name:      "a.jpg",
			ImagePath: writeTestImage(t, dir, "a.jpg", createGradient(40, 30)),
			LabelPath: writeTestFile(t, dir, "a.txt", "0 0.5 0.5 0.2 0.2\n4 0.95 0.95 0.2 0.2\n"),
			Role:      RoleOriginal,
		},
		{
			Name:      "b.png",
			ImagePath: writeTestImage(t, dir, "b.png", createGradient(20, 20)),
			LabelPath: writeTestFile(t, dir, "b.txt", "7 0.3 0.3 0.1 0.1\n"),
			Role:      RoleOriginal,
		},
		{
			Name:      "c.jpg",
			ImagePath: writeTestImage(t, dir, "c.jpg", createGradient(10, 10)),
			Role:      RoleOriginal,
		},
	}
}

func TestToTFFeatures(t *testing.T) {
	entries := createLabelledEntries(t, t.TempDir())

	f, err := toTFFeatures(entries[0], DefaultClassTable)
	if err != nil {
		t.Fatalf("toTFFeatures failed: %v", err)
	}

	if f["image/width"] != 40 || f["image/height"] != 30 || f["image/format"] != "jpeg" {
		t.Errorf("unexpected image metadata %v %v %v", f["image/width"], f["image/height"], f["image/format"])
	}
	texts := f["image/object/class/text"].([]string)
	labels := f["image/object/class/label"].([]int64)
	if len(texts) != 2 || texts[0] != "chicken" || texts[1] != "rice" {
		t.Errorf("class texts %v", texts)
	}
	if labels[0] != 1 || labels[1] != 5 {
		t.Errorf("class labels %v, want [1 5]", labels)
	}
	if xmax := f["image/object/bbox/xmax"].([]float32); xmax[1] != 1 {
		t.Errorf("box extending past the edge not clamped: xmax %v", xmax[1])
	}
}

func TestWriteTFRecord(t *testing.T) {
	dir := t.TempDir()
	entries := createLabelledEntries(t, dir)

	single := filepath.Join(dir, "train.record")
	if err := WriteTFRecord(single, entries, DefaultClassTable, 1); err != nil {
		t.Fatalf("WriteTFRecord failed: %v", err)
	}
	if info, err := os.Stat(single); err != nil || info.Size() == 0 {
		t.Errorf("record file missing or empty: %v", err)
	}

	sharded := filepath.Join(dir, "sharded.record")
	if err := WriteTFRecord(sharded, entries, DefaultClassTable, 2); err != nil {
		t.Fatalf("WriteTFRecord failed: %v", err)
	}
	for _, suffix := range []string{"-00000-of-00002", "-00001-of-00002"} {
		if !fileExists(sharded + suffix) {
			t.Errorf("shard %q not written", sharded+suffix)
		}
	}

	if err := WriteTFRecord(filepath.Join(dir, "empty.record"), nil, DefaultClassTable, 1); err != nil {
		t.Errorf("empty input: %v", err)
	}
}

func TestWriteLabelMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label_map.pbtxt")
	if err := WriteLabelMap(path, NewClassTable("rice", "naan")); err != nil {
		t.Fatalf("WriteLabelMap failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "item {\n  id: 1\n  name: \"rice\"\n}\nitem {\n  id: 2\n  name: \"naan\"\n}\n"
	if string(data) != want {
		t.Errorf("got:\n%s\nwant:\n%s", data, want)
	}
}
