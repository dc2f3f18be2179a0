// Package discovery extracts delivery targets from the received-data log.
//
// The log is the only source of recipients for cyclic broadcasts: every
// chat the bot has seen a message in, every sender, and every callback
// origin is a candidate. Parsing is purely lexical; lines that match no
// pattern are skipped, never rejected.
package discovery

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"sort"

	"botcast/internal/transport"
)

var (
	chatIDPattern        = regexp.MustCompile(`Chat: (-?\d+)`)
	chatHandlePattern    = regexp.MustCompile(`Chat: [^)]+\(@([^)]+)\)`)
	senderIDPattern      = regexp.MustCompile(`Sender: (\d+)`)
	senderHandlePattern  = regexp.MustCompile(`Sender: [^)]+\(@([^)]+)\)`)
	callbackIDPattern    = regexp.MustCompile(`CallbackQuery: From=(\d+)`)
	callbackHandlePattern = regexp.MustCompile(`CallbackQuery: From=[^)]+\(@([^)]+)\)`)
)

// FromFile parses the log at path. A missing file is not an error: it means
// no data has been collected yet, so the result is simply empty.
func FromFile(path string) ([]transport.Recipient, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return Scan(f)
}

// Scan reads log lines from r and returns the deduplicated recipient set,
// sorted by canonical form so one broadcast sweep iterates a stable order.
func Scan(r io.Reader) ([]transport.Recipient, error) {
	set := make(map[string]transport.Recipient)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		scanLine(sc.Text(), set)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return sorted(set), nil
}

// scanLine applies all six reference patterns. One line may contribute up to
// two recipients (an id and a handle for the same field).
func scanLine(line string, set map[string]transport.Recipient) {
	if m := chatIDPattern.FindStringSubmatch(line); m != nil {
		add(set, idRecipient(m[1]))
	}
	if m := chatHandlePattern.FindStringSubmatch(line); m != nil {
		add(set, transport.RecipientHandle(m[1]))
	}
	if m := senderIDPattern.FindStringSubmatch(line); m != nil {
		add(set, idRecipient(m[1]))
	}
	if m := senderHandlePattern.FindStringSubmatch(line); m != nil {
		add(set, transport.RecipientHandle(m[1]))
	}
	if m := callbackIDPattern.FindStringSubmatch(line); m != nil {
		add(set, idRecipient(m[1]))
	}
	if m := callbackHandlePattern.FindStringSubmatch(line); m != nil {
		add(set, transport.RecipientHandle(m[1]))
	}
}

func idRecipient(decimal string) transport.Recipient {
	r, err := transport.ParseRecipient(decimal)
	if err != nil {
		return transport.Recipient{}
	}
	return r
}

func add(set map[string]transport.Recipient, r transport.Recipient) {
	if r.IsZero() {
		return
	}
	set[r.String()] = r
}

func sorted(set map[string]transport.Recipient) []transport.Recipient {
	out := make([]transport.Recipient, 0, len(set))
	for _, r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
