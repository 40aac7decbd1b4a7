package socketdir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		socketType, name string
		want             string
	}{
		{"server", "default", "server.default.sock"},
		{"server", "work", "server.work.sock"},
	}
	for _, tt := range tests {
		got := Format(tt.socketType, tt.name)
		if got != tt.want {
			t.Errorf("Format(%q, %q) = %q, want %q", tt.socketType, tt.name, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		filename string
		wantType string
		wantName string
		wantOK   bool
	}{
		{"server.default.sock", TypeServer, "default", true},
		{"server.work.sock", TypeServer, "work", true},
		{"notasocket.txt", "", "", false},
		{"noperiod.sock", "", "", false},
		{".sock", "", "", false},
		{"onlyone.sock", "", "", false},
		{"server..sock", TypeServer, "", true}, // degenerate but parseable
	}
	for _, tt := range tests {
		entry, ok := Parse(tt.filename)
		if ok != tt.wantOK {
			t.Errorf("Parse(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if entry.Type != tt.wantType {
			t.Errorf("Parse(%q).Type = %q, want %q", tt.filename, entry.Type, tt.wantType)
		}
		if entry.Name != tt.wantName {
			t.Errorf("Parse(%q).Name = %q, want %q", tt.filename, entry.Name, tt.wantName)
		}
	}
}

func TestPath(t *testing.T) {
	got := Path("server", "default")
	want := filepath.Join(Dir(), "server.default.sock")
	if got != want {
		t.Errorf("Path(server, default) = %q, want %q", got, want)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "server.default.sock"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "server.work.sock"), nil, 0o600)

	t.Run("single match", func(t *testing.T) {
		path, err := FindIn(dir, "default")
		if err != nil {
			t.Fatal(err)
		}
		want := filepath.Join(dir, "server.default.sock")
		if path != want {
			t.Errorf("Find(default) = %q, want %q", path, want)
		}
	})

	t.Run("no match", func(t *testing.T) {
		_, err := FindIn(dir, "nonexistent")
		if err == nil {
			t.Fatal("expected error for no match")
		}
	})
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "server.default.sock"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "server.work.sock"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "random.txt"), nil, 0o600)      // ignored
	os.WriteFile(filepath.Join(dir, "old-format.sock"), nil, 0o600) // ignored (no type.name format)

	entries, err := ListIn(dir)
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}

	for _, e := range entries {
		if e.Type != TypeServer {
			t.Errorf("unexpected entry type %q", e.Type)
		}
		if e.Path == "" {
			t.Error("entry has empty Path")
		}
	}
}

func TestListByType(t *testing.T) {
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "server.default.sock"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "server.work.sock"), nil, 0o600)

	servers, err := ListByTypeIn(dir, TypeServer)
	if err != nil {
		t.Fatal(err)
	}
	if len(servers) != 2 {
		t.Errorf("expected 2 servers, got %d", len(servers))
	}
}

func TestListIn_EmptyDir(t *testing.T) {
	entries, err := ListIn(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(entries))
	}
}

func TestListIn_NonexistentDir(t *testing.T) {
	entries, err := ListIn("/nonexistent/path")
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Errorf("expected nil, got %v", entries)
	}
}

func TestDir_EndsInSockets(t *testing.T) {
	dir := Dir()
	if !strings.HasSuffix(dir, "sockets") {
		t.Errorf("Dir() = %q, expected to end with 'sockets'", dir)
	}
}

func TestPidLockPath(t *testing.T) {
	got := PidLockPath()
	want := filepath.Join(Dir(), "gomux.pid.lock")
	if got != want {
		t.Errorf("PidLockPath() = %q, want %q", got, want)
	}
}
