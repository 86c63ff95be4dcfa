package projection

import "testing"

func TestParsePathInfo(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		ok        bool
		wantKind  Kind
		wantMain  string
		wantChild string
	}{
		{name: "root", path: "queues", ok: true, wantKind: KindRoot},
		{name: "root with slashes", path: "/queues/", ok: true, wantKind: KindRoot},
		{name: "main", path: "queues/default", ok: true, wantKind: KindMain, wantMain: "default"},
		{name: "child", path: "queues/default/item-1", ok: true, wantKind: KindChild, wantMain: "default", wantChild: "item-1"},
		{name: "too deep", path: "queues/default/item-1/extra", ok: false},
		{name: "outside base", path: "log/default", ok: false},
		{name: "empty main segment", path: "queues//item-1", ok: false},
		{name: "unrelated prefix", path: "queuesextra", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info, ok := ParsePathInfo("queues", tc.path)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if info.kind != tc.wantKind {
				t.Fatalf("kind = %v, want %v", info.kind, tc.wantKind)
			}
			if info.Main() != tc.wantMain {
				t.Fatalf("main = %q, want %q", info.Main(), tc.wantMain)
			}
			if info.Child() != tc.wantChild {
				t.Fatalf("child = %q, want %q", info.Child(), tc.wantChild)
			}
		})
	}
}
