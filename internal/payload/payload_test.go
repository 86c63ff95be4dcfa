package payload_test

import (
	"strings"
	"testing"

	"courier/internal/payload"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		input string
		want  payload.Action
		ok    bool
	}{
		{"add", payload.ActionAdd, true},
		{" DELETE ", payload.ActionDelete, true},
		{"pull", payload.ActionPull, true},
		{"test", payload.ActionTest, true},
		{"", "", false},
		{"replicate", "", false},
	}
	for _, tc := range tests {
		got, ok := payload.ParseAction(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseAction(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNewAssignsIDAndDefaults(t *testing.T) {
	pkg := payload.New("", payload.ActionAdd, []string{"/content/site"})
	if pkg.ID == "" {
		t.Fatal("expected generated id")
	}
	if pkg.Type != payload.DefaultType {
		t.Fatalf("expected default type, got %q", pkg.Type)
	}
	if pkg.Created.IsZero() {
		t.Fatal("expected created timestamp")
	}

	other := payload.New("", payload.ActionAdd, []string{"/content/site"})
	if other.ID == pkg.ID {
		t.Fatal("ids must be unique per package")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		pkg     payload.Package
		wantErr string
	}{
		{
			name: "valid add",
			pkg:  payload.New("", payload.ActionAdd, []string{"/content/a", "/content/b"}),
		},
		{
			name: "test without paths",
			pkg:  payload.New("", payload.ActionTest, nil),
		},
		{
			name:    "missing id",
			pkg:     payload.Package{Action: payload.ActionAdd, Paths: []string{"/a"}},
			wantErr: "id is required",
		},
		{
			name:    "unknown action",
			pkg:     payload.Package{ID: "x", Action: "sync", Paths: []string{"/a"}},
			wantErr: "unknown package action",
		},
		{
			name:    "add without paths",
			pkg:     payload.Package{ID: "x", Action: payload.ActionAdd},
			wantErr: "paths are required",
		},
		{
			name:    "relative path",
			pkg:     payload.Package{ID: "x", Action: payload.ActionAdd, Paths: []string{"content/a"}},
			wantErr: "must be absolute",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.pkg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %v does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	pkg := payload.New("filevault", payload.ActionDelete, []string{"/content/site/de"})
	data, err := pkg.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	decoded, err := payload.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.ID != pkg.ID || decoded.Action != payload.ActionDelete {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
	if len(decoded.Paths) != 1 || decoded.Paths[0] != "/content/site/de" {
		t.Fatalf("paths mismatch: %+v", decoded.Paths)
	}
}
