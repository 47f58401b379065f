package exporter_test

import (
	"strings"
	"testing"
	"time"

	"driveview/internal/exporter"
	"driveview/internal/model"
)

func entryAt(id, name, mime string, modified time.Time) model.Entry {
	return model.Entry{ID: id, Name: name, MimeType: mime, ModifiedAt: modified}
}

func TestExportHTML_GroupsByMonth(t *testing.T) {
	entries := []model.Entry{
		entryAt("1", "beach.jpg", "image/jpeg", time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)),
		entryAt("2", "hike.mp4", "video/mp4", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)),
		entryAt("3", "sunset.jpg", "image/jpeg", time.Date(2024, 7, 22, 0, 0, 0, 0, time.UTC)),
	}

	out := exporter.ExportHTML("My Gallery", entries)

	if !strings.Contains(out, "<!DOCTYPE NETSCAPE-Bookmark-file-1>") {
		t.Error("missing bookmark doctype")
	}
	if !strings.Contains(out, "<TITLE>My Gallery</TITLE>") {
		t.Error("missing title")
	}
	if !strings.Contains(out, "<H3>July 2024</H3>") {
		t.Error("missing July bucket")
	}
	if !strings.Contains(out, "<H3>June 2024</H3>") {
		t.Error("missing June bucket")
	}

	// Newest bucket comes first.
	if strings.Index(out, "July 2024") > strings.Index(out, "June 2024") {
		t.Error("month buckets not ordered newest first")
	}
	// Both July entries land inside the July folder, before June.
	if strings.Index(out, "sunset.jpg") > strings.Index(out, "June 2024") {
		t.Error("entry placed in wrong bucket")
	}
}

func TestExportHTML_EscapesNames(t *testing.T) {
	entries := []model.Entry{
		entryAt("1", `video <raw> & "quoted"`, "video/mp4", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}

	out := exporter.ExportHTML("a & b", entries)

	if strings.Contains(out, "video <raw>") {
		t.Error("entry name not escaped")
	}
	if !strings.Contains(out, "video &lt;raw&gt; &amp; &#34;quoted&#34;") {
		t.Errorf("escaped name missing from output:\n%s", out)
	}
	if !strings.Contains(out, "<TITLE>a &amp; b</TITLE>") {
		t.Error("title not escaped")
	}
}

func TestExportHTML_IncludesAddDate(t *testing.T) {
	modified := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	out := exporter.ExportHTML("x", []model.Entry{entryAt("1", "a.jpg", "image/jpeg", modified)})

	if !strings.Contains(out, `ADD_DATE="1710504000"`) {
		t.Errorf("modified time not carried as ADD_DATE:\n%s", out)
	}
}

func TestEntryURL(t *testing.T) {
	withLink := model.Entry{ID: "1", WebViewLink: "https://example.com/view"}
	if got := exporter.EntryURL(withLink); got != "https://example.com/view" {
		t.Errorf("web view link should win: %s", got)
	}

	folder := model.Entry{ID: "f1", MimeType: "application/vnd.google-apps.folder"}
	if got := exporter.EntryURL(folder); got != "https://drive.google.com/drive/folders/f1" {
		t.Errorf("unexpected folder URL: %s", got)
	}

	file := model.Entry{ID: "x9", MimeType: "image/png"}
	if got := exporter.EntryURL(file); got != "https://drive.google.com/file/d/x9/view" {
		t.Errorf("unexpected file URL: %s", got)
	}
}
