package link_test

import (
	"net/url"
	"testing"

	"driveview/internal/derive"
	"driveview/internal/link"
)

func TestEncode_OmitsDefaults(t *testing.T) {
	loc := link.Location{FolderID: "folder123", View: derive.DefaultView()}
	got := link.Encode(loc)
	if got != "folder=folder123" {
		t.Errorf("default view should encode folder only, got %q", got)
	}
}

func TestEncode_NonDefaultView(t *testing.T) {
	view := derive.DefaultView()
	view.Filter = derive.Filter("image")
	view.Sort = derive.Sort{Key: derive.SortDate, Desc: true}
	view.Search = "summer trip"
	view.OpenItemID = "item9"

	got := link.Encode(link.Location{FolderID: "f1", View: view})
	want := "folder=f1&filter=image&sort=date-desc&q=summer+trip&item=item9"
	if got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	view := derive.DefaultView()
	view.Filter = derive.FilterFavorites
	view.Sort = derive.Sort{Key: derive.SortTimeline}
	view.Search = "dog"
	view.ViewMode = "list"

	in := link.Location{FolderID: "abcdef", View: view}
	out := link.Decode(link.Encode(in))

	if out.FolderID != in.FolderID {
		t.Errorf("folder = %q, want %q", out.FolderID, in.FolderID)
	}
	if out.View != in.View {
		t.Errorf("view = %+v, want %+v", out.View, in.View)
	}
}

func TestDecode_ToleratesMalformedInput(t *testing.T) {
	for _, raw := range []string{
		"",
		"?",
		"%zz=bad",
		"filter=nonsense&sort=garbage",
		"https://example.com/view?folder=ok123&sort=not-a-sort",
	} {
		loc := link.Decode(raw)
		if loc.View.Filter != derive.FilterAll && loc.View.Filter != "" {
			t.Errorf("Decode(%q) filter = %q, want default", raw, loc.View.Filter)
		}
		if loc.View.Sort != derive.DefaultSort {
			t.Errorf("Decode(%q) sort = %v, want default", raw, loc.View.Sort)
		}
	}

	// The recoverable part still decodes.
	loc := link.Decode("https://example.com/view?folder=ok123&sort=not-a-sort")
	if loc.FolderID != "ok123" {
		t.Errorf("folder = %q, want ok123", loc.FolderID)
	}
}

func TestDecode_PreservesPassthroughParams(t *testing.T) {
	loc := link.Decode("folder=f1&embed=1&lock=abc123")
	if loc.Passthrough.Get("embed") != "1" || loc.Passthrough.Get("lock") != "abc123" {
		t.Fatalf("passthrough not preserved: %v", loc.Passthrough)
	}

	// Re-encoding keeps them verbatim, after the owned params.
	got := link.Encode(loc)
	want := "folder=f1&embed=1&lock=abc123"
	if got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestEncode_KeepsEmptyPassthroughValues(t *testing.T) {
	loc := link.Decode("folder=f1&lock=&embed=1")
	if vals, ok := loc.Passthrough["lock"]; !ok || len(vals) != 1 || vals[0] != "" {
		t.Fatalf("empty passthrough value lost on decode: %v", loc.Passthrough)
	}

	got := link.Encode(loc)
	want := "folder=f1&embed=1&lock="
	if got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}

	// The marker survives a second round trip too.
	if again := link.Encode(link.Decode(got)); again != got {
		t.Errorf("re-encode = %q, want %q", again, got)
	}
}

func TestEncode_PassthroughNeverShadowsOwnedParams(t *testing.T) {
	loc := link.Location{
		FolderID:    "f1",
		View:        derive.DefaultView(),
		Passthrough: url.Values{"folder": {"evil"}, "theme": {"dark"}},
	}
	got := link.Encode(loc)
	if got != "folder=f1&theme=dark" {
		t.Errorf("Encode = %q", got)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	loc := link.Decode("folder=f1&zz=2&aa=1&mm=3")
	first := link.Encode(loc)
	for i := 0; i < 20; i++ {
		if got := link.Encode(loc); got != first {
			t.Fatalf("Encode not deterministic: %q vs %q", got, first)
		}
	}
	if first != "folder=f1&aa=1&mm=3&zz=2" {
		t.Errorf("passthrough keys should be sorted, got %q", first)
	}
}

func TestExtractFolderID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://drive.google.com/drive/folders/1AbCdEfGhIjKlMnOp", "1AbCdEfGhIjKlMnOp"},
		{"https://drive.google.com/drive/folders/1AbCdEfGhIjKlMnOp?usp=sharing", "1AbCdEfGhIjKlMnOp"},
		{"view?folder=sharedid&filter=image", "sharedid"},
		{"1AbCdEfGhIjKlMnOpQrS", "1AbCdEfGhIjKlMnOpQrS"},
		{"short", ""},
		{"not a url at all", ""},
	}
	for _, c := range cases {
		if got := link.ExtractFolderID(c.in); got != c.want {
			t.Errorf("ExtractFolderID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
