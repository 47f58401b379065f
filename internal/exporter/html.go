package exporter

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"driveview/internal/derive"
	"driveview/internal/model"
)

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/gallery-export-YYYY-MM-DD.html
func DefaultExportPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("gallery-export-%s.html", time.Now().Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML renders a folder listing as Netscape bookmark HTML, one
// folder per month bucket, so the export opens in any browser's
// bookmark importer.
func ExportHTML(title string, entries []model.Entry) string {
	var b strings.Builder

	// Header
	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	fmt.Fprintf(&b, "<TITLE>%s</TITLE>\n", html.EscapeString(title))
	fmt.Fprintf(&b, "<H1>%s</H1>\n", html.EscapeString(title))
	b.WriteString("<DL><p>\n")

	for _, group := range derive.MonthGroups(entries) {
		fmt.Fprintf(&b, "    <DT><H3>%s</H3>\n", html.EscapeString(group.Label))
		b.WriteString("    <DL><p>\n")
		for _, e := range group.Entries {
			writeEntry(&b, e, 2)
		}
		b.WriteString("    </DL><p>\n")
	}

	// Footer
	b.WriteString("</DL><p>\n")

	return b.String()
}

func writeEntry(b *strings.Builder, e model.Entry, indent int) {
	prefix := strings.Repeat("    ", indent)
	fmt.Fprintf(b,
		"%s<DT><A HREF=\"%s\" ADD_DATE=\"%d\">%s</A>\n",
		prefix,
		html.EscapeString(EntryURL(e)),
		e.ModifiedAt.Unix(),
		html.EscapeString(e.Name),
	)
}

// EntryURL returns the browsable URL for an entry, synthesizing one
// from the id when the listing carried no web link.
func EntryURL(e model.Entry) string {
	if e.WebViewLink != "" {
		return e.WebViewLink
	}
	if e.Kind() == model.KindFolder {
		return "https://drive.google.com/drive/folders/" + e.ID
	}
	return "https://drive.google.com/file/d/" + e.ID + "/view"
}
