package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"driveview/internal/exporter"
	"driveview/internal/importer"
	"driveview/internal/link"
	"driveview/internal/model"
	"driveview/internal/picker"
	"driveview/internal/poll"
	"driveview/internal/remote"
	"driveview/internal/search"
	"driveview/internal/session"
	"driveview/internal/storage"
	"driveview/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		return
	}

	switch os.Args[1] {
	case "help", "--help", "-h":
		printHelp()
	case "import":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Usage: driveview import <file.html>\n")
			os.Exit(1)
		}
		runImport(os.Args[2])
	case "export":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Usage: driveview export <folder-id-or-url> [path]\n")
			os.Exit(1)
		}
		var outputPath string
		if len(os.Args) >= 4 {
			outputPath = os.Args[3]
		}
		runExport(os.Args[2], outputPath)
	default:
		target := os.Args[1]
		if len(os.Args) > 2 {
			// Folder plus query: quick search, pick, open in browser
			runQuickSearch(target, strings.Join(os.Args[2:], " "))
			return
		}
		runTUI(target)
	}
}

func printHelp() {
	help := `driveview - terminal gallery for shared Drive folders

Usage:
  driveview <folder-id-or-url>          Open the gallery TUI
  driveview <folder> <query>            Quick search a folder and open the pick
  driveview import <file.html>          Import favorites from bookmark HTML
  driveview export <folder> [path]      Export a folder listing to bookmark HTML
  driveview help                        Show this help

The folder argument accepts a bare id, a drive.google.com/drive/folders/...
share URL, or a deep link with view parameters.

TUI Keybindings:
  Navigation:
    j/k         Move down/up
    h/f         History back/forward
    gg/G        Jump to top/bottom
    l/Enter     Enter folder / open media

  View:
    /           Search current folder
    Tab         Cycle kind filter
    o           Cycle sort (incl. timeline)
    v           Toggle list details
    z           Fold month group
    m           Load more entries
    r           Check for new files

  Curation:
    *           Toggle favorite
    x           Hide entry
    Y           Copy share link

  Other:
    ?           Show help overlay
    q           Quit

Configuration:
  ~/.config/driveview/config.json
`
	fmt.Print(help)
}

// newLogger writes structured logs to a file so they never corrupt the
// terminal UI. DRIVEVIEW_LOG=debug raises the level.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if os.Getenv("DRIVEVIEW_LOG") == "debug" {
		level = zerolog.DebugLevel
	}

	var w io.Writer = io.Discard
	if dir, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(dir, ".config", "driveview", "driveview.log")
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			w = f
		}
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}

func loadConfig() *storage.Config {
	path, err := storage.DefaultConfigFilePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error locating config: %v\n", err)
		os.Exit(1)
	}
	cfg, err := storage.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newRemote(cfg *storage.Config, log zerolog.Logger) *remote.Client {
	return remote.NewClient(remote.Config{
		BaseURL:     cfg.APIBaseURL,
		APIKey:      cfg.APIKey,
		BearerToken: cfg.BearerToken,
		PageSize:    cfg.PageSize,
	}, log)
}

// runTUI runs the full interactive gallery.
func runTUI(target string) {
	folderID := link.ExtractFolderID(target)
	if folderID == "" {
		fmt.Fprintf(os.Stderr, "Not a folder id or share URL: %s\n", target)
		os.Exit(1)
	}

	log := newLogger()
	cfg := loadConfig()
	client := newRemote(cfg, log)

	store, err := storage.OpenStorage()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening state storage: %v\n", err)
		os.Exit(1)
	}
	curation, err := storage.NewCuration(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		os.Exit(1)
	}

	sess := session.New(client, curation.Aux(), log, session.Config{
		AutoLoadLimit: cfg.AutoLoadLimit,
	})

	var poller *poll.Poller
	if cfg.PollEnabled {
		interval := time.Duration(cfg.PollIntervalSeconds) * time.Second
		poller = poll.New(client, sess, log, interval)
	}

	// A deep link restores its encoded view state; a bare id or plain
	// share URL opens the default view.
	location := ""
	if strings.Contains(target, "?") {
		location = target
	}

	params := tui.AppParams{
		Session:  sess,
		Curation: curation,
		FolderID: folderID,
		Location: location,
	}
	// A nil *Poller must not end up as a non-nil interface.
	if poller != nil {
		params.Poller = poller
	}
	app := tui.NewApp(params)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithReportFocus())
	sess.SetOnChange(func() {
		go p.Send(tui.RefreshMsg{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if poller != nil {
		poller.Start(ctx)
		defer poller.Stop()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}

// runQuickSearch lists a folder, fuzzy-matches the query against entry
// names and opens the selection in the browser.
func runQuickSearch(target, query string) {
	folderID := link.ExtractFolderID(target)
	if folderID == "" {
		fmt.Fprintf(os.Stderr, "Not a folder id or share URL: %s\n", target)
		os.Exit(1)
	}

	log := newLogger()
	cfg := loadConfig()
	client := newRemote(cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entries, _, err := client.ListFolder(ctx, folderID, "", cfg.AutoLoadLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing folder: %v\n", err)
		os.Exit(1)
	}

	results := search.FuzzyEntries(entries, query)
	if len(results) == 0 {
		fmt.Printf("No entries found for '%s'\n", query)
		return
	}

	var selected *model.Entry
	if len(results) == 1 {
		selected = results[0].Entry
		fmt.Printf("Opening: %s\n", selected.Name)
	} else {
		p := picker.New(results, query)
		program := tea.NewProgram(p)
		finalModel, err := program.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running picker: %v\n", err)
			os.Exit(1)
		}

		finalPicker := finalModel.(picker.Picker)
		if finalPicker.Cancelled() {
			return
		}
		selected = finalPicker.SelectedEntry()
	}

	if selected == nil {
		return
	}
	openURL(exporter.EntryURL(*selected))
}

// openURL opens a URL in the default browser.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	}
	if cmd != nil {
		_ = cmd.Start()
	}
}

// runImport handles the import subcommand, marking every Drive link in
// a bookmark HTML file as favorite.
func runImport(filePath string) {
	store, err := storage.OpenStorage()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening state storage: %v\n", err)
		os.Exit(1)
	}
	curation, err := storage.NewCuration(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		os.Exit(1)
	}

	file, err := os.Open(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	items, err := importer.ParseHTMLFavorites(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing HTML: %v\n", err)
		os.Exit(1)
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	added, err := curation.AddFavorites(ids)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error saving state: %v\n", err)
		os.Exit(1)
	}

	skipped := len(items) - added
	fmt.Printf("Imported %d favorites", added)
	if skipped > 0 {
		fmt.Printf(" (%d duplicates skipped)", skipped)
	}
	fmt.Println()
}

// runExport handles the export subcommand, writing a folder listing as
// bookmark HTML.
func runExport(target, outputPath string) {
	folderID := link.ExtractFolderID(target)
	if folderID == "" {
		fmt.Fprintf(os.Stderr, "Not a folder id or share URL: %s\n", target)
		os.Exit(1)
	}

	if outputPath == "" {
		var err error
		outputPath, err = exporter.DefaultExportPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting default export path: %v\n", err)
			os.Exit(1)
		}
	}

	log := newLogger()
	cfg := loadConfig()
	client := newRemote(cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	entries, _, err := client.ListFolder(ctx, folderID, "", 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing folder: %v\n", err)
		os.Exit(1)
	}

	name := client.FolderName(ctx, folderID)
	html := exporter.ExportHTML(name, entries)

	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Exported %d entries from %q to %s\n", len(entries), name, outputPath)
}
