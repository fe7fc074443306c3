package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
	"github.com/creack/pty"

	"github.com/abelbrown/gallery/internal/store"
)

// buildGallery builds the gallery binary for testing.
func buildGallery(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "gallery")

	rootDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	// test/e2e -> repo root
	rootDir = filepath.Join(rootDir, "..", "..")

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/gallery")
	cmd.Dir = rootDir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}
	return binPath
}

// seedHistory writes terms into the history slot under homeDir.
func seedHistory(homeDir string, terms ...string) error {
	dir := filepath.Join(homeDir, ".gallery")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	st, err := store.Open(filepath.Join(dir, "gallery.db"))
	if err != nil {
		return err
	}
	defer st.Close()
	h := store.NewHistory(st)
	for _, term := range terms {
		if err := h.Add(term); err != nil {
			return err
		}
	}
	return nil
}

func readHistory(t *testing.T, homeDir string) []string {
	t.Helper()
	st, err := store.Open(filepath.Join(homeDir, ".gallery", "gallery.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer st.Close()
	terms, err := store.NewHistory(st).List()
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	return terms
}

// startGallery runs binPath on a fresh console sized 120x40.
func startGallery(t *testing.T, binPath, homeDir, endpoint string) (*exec.Cmd, *expect.Console, *bytes.Buffer) {
	t.Helper()
	var outputBuf bytes.Buffer
	console, err := expect.NewConsole(
		expect.WithStdout(&outputBuf),
		expect.WithDefaultTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("failed to create console: %v", err)
	}
	t.Cleanup(func() { console.Close() })

	if err := pty.Setsize(console.Tty(), &pty.Winsize{Cols: 120, Rows: 40}); err != nil {
		t.Fatalf("failed to set pty size: %v", err)
	}

	cmd := exec.Command(binPath, "--no-mouse")
	cmd.Env = append(os.Environ(),
		"HOME="+homeDir,
		"FLICKR_API_KEY=dummy-key",
		"GALLERY_ENDPOINT="+endpoint,
	)
	cmd.Stdin = console.Tty()
	cmd.Stdout = console.Tty()
	cmd.Stderr = console.Tty()
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start gallery: %v", err)
	}
	t.Cleanup(func() { _ = cmd.Process.Kill() })
	return cmd, console, &outputBuf
}

func waitExit(t *testing.T, cmd *exec.Cmd) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("process did not exit after 'q'")
	}
}

func TestE2E_Search(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and drives the binary in a pty")
	}
	binPath := buildGallery(t)

	api := newFakeFlickr()
	defer api.Close()

	homeDir := t.TempDir()
	if err := seedHistory(homeDir, "sunsets"); err != nil {
		t.Fatalf("failed to seed history: %v", err)
	}

	cmd, console, outputBuf := startGallery(t, binPath, homeDir, api.URL)

	// The header is drawn above the grid and unchanged lines are not
	// redrawn, so the suggestion must be matched before the photos.
	if _, err := console.ExpectString("sunsets"); err != nil {
		t.Fatalf("seeded suggestion not shown: %v\nScreen:\n%s", err, outputBuf.String())
	}
	t.Log("Waiting for recent photos...")
	if _, err := console.ExpectString("recent p1 #1"); err != nil {
		if logs, err := os.ReadFile(filepath.Join(homeDir, ".gallery", "gallery.events.jsonl")); err == nil {
			t.Logf("events:\n%s", logs)
		}
		t.Fatalf("startup failed: first recent photo not shown: %v\nScreen:\n%s", err, outputBuf.String())
	}

	time.Sleep(300 * time.Millisecond)
	if _, err := console.Send("/"); err != nil {
		t.Fatalf("failed to send slash: %v", err)
	}
	// The cursor is drawn over the first placeholder rune.
	if _, err := console.ExpectString("earch photos"); err != nil {
		t.Fatalf("search prompt not found: %v\nScreen:\n%s", err, outputBuf.String())
	}

	if _, err := console.Send("cats"); err != nil {
		t.Fatalf("failed to send query: %v", err)
	}
	if _, err := console.Send("\r"); err != nil {
		t.Fatalf("failed to send Enter: %v", err)
	}

	if _, err := console.ExpectString("cats p1 #1"); err != nil {
		t.Fatalf("search results not shown: %v\nScreen:\n%s", err, outputBuf.String())
	}

	time.Sleep(300 * time.Millisecond)
	if _, err := console.Send("q"); err != nil {
		t.Fatalf("failed to send q: %v", err)
	}

	waitExit(t, cmd)

	if got := readHistory(t, homeDir); !slices.Equal(got, []string{"sunsets", "cats"}) {
		t.Errorf("history = %v, want [sunsets cats]", got)
	}

	reqs := api.seen()
	if !slices.Contains(reqs, "flickr.photos.getRecent  1") || !slices.Contains(reqs, "flickr.photos.search cats 1") {
		t.Errorf("unexpected requests: %v", reqs)
	}
}

func TestE2E_LoadMore(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and drives the binary in a pty")
	}
	binPath := buildGallery(t)

	api := newFakeFlickr()
	defer api.Close()
	homeDir := t.TempDir()

	cmd, console, outputBuf := startGallery(t, binPath, homeDir, api.URL)

	if _, err := console.ExpectString("recent p1 #1"); err != nil {
		t.Fatalf("startup failed: %v\nScreen:\n%s", err, outputBuf.String())
	}

	// Jump to the last row, which crosses the bottom sentinel.
	time.Sleep(300 * time.Millisecond)
	if _, err := console.Send("G"); err != nil {
		t.Fatalf("failed to send G: %v", err)
	}
	if _, err := console.ExpectString("recent p2 #1"); err != nil {
		t.Fatalf("second page not appended: %v\nScreen:\n%s", err, outputBuf.String())
	}

	if _, err := console.Send("q"); err != nil {
		t.Fatalf("failed to send q: %v", err)
	}
	waitExit(t, cmd)

	pages := 0
	for _, r := range api.seen() {
		if r == "flickr.photos.getRecent  2" {
			pages++
		}
	}
	if pages != 1 {
		t.Errorf("page 2 requested %d times, want 1 (requests: %v)", pages, api.seen())
	}
}
