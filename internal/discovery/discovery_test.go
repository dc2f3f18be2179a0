package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"botcast/internal/transport"
)

const sampleLog = `2025-11-02 10:15:01 - INCOMING; UpdateID: 101; Chat: -1001234567890 (Announcements); Sender: 111222333 (@alice); Content: Text: 'hi'
2025-11-02 10:15:09 - INCOMING; UpdateID: 102; Chat: 555666777 (@bobsmith); Sender: 555666777 (@bobsmith); Content: Sticker: ID=abc, Emoji=👍
2025-11-02 10:16:30 - CallbackQuery: From=111222333 (@alice), Data='menu:open', MsgID=42
2025-11-02 10:17:00 - OUTGOING; Chat: 999000111; Content: Text: 'pong'
some unrelated noise line
2025-11-02 10:18:12 - INCOMING; UpdateID: 103; Chat: -1001234567890 (Announcements); Sender: 111222333 (@alice); Content: Text: 'again'
`

func stringsOf(rs []transport.Recipient) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.String()
	}
	return out
}

func TestScanExtractsAllPatterns(t *testing.T) {
	got, err := Scan(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := map[string]bool{
		"-1001234567890": true, // incoming chat id
		"111222333":      true, // sender id (also callback origin)
		"@alice":         true, // sender handle (also callback handle)
		"555666777":      true, // private chat id == sender id, deduplicated
		"@bobsmith":      true, // chat handle and sender handle, deduplicated
		"999000111":      true, // outgoing chat id
	}
	gotSet := stringsOf(got)
	if len(gotSet) != len(want) {
		t.Fatalf("expected %d recipients, got %d: %v", len(want), len(gotSet), gotSet)
	}
	for _, s := range gotSet {
		if !want[s] {
			t.Fatalf("unexpected recipient %q in %v", s, gotSet)
		}
	}
}

func TestScanOrderIsStable(t *testing.T) {
	got, err := Scan(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	gotStrings := stringsOf(got)
	if !sort.StringsAreSorted(gotStrings) {
		t.Fatalf("recipients not in canonical order: %v", gotStrings)
	}

	// Idempotent: rescan of the same data yields the identical slice.
	again, err := Scan(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if strings.Join(gotStrings, ",") != strings.Join(stringsOf(again), ",") {
		t.Fatalf("rescan changed the set: %v vs %v", gotStrings, stringsOf(again))
	}
}

func TestScanIgnoresUnmatchedLines(t *testing.T) {
	got, err := Scan(strings.NewReader("no patterns here\nChat without colon 123\n"))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %v", stringsOf(got))
	}
}

func TestFromFileMissingIsEmpty(t *testing.T) {
	got, err := FromFile(filepath.Join(t.TempDir(), "nope", "received_data.log"))
	if err != nil {
		t.Fatalf("missing log must not be an error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no recipients, got %v", stringsOf(got))
	}
}

func TestFromFileReadsDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "received_data.log")
	if err := os.WriteFile(path, []byte(sampleLog), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	got, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected recipients from sample log")
	}
}
