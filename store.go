// SPDX-FileCopyrightText: The mail-client Authors
//
// SPDX-License-Identifier: MIT

package mailclient

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// emlFileName is the file each stored message is kept in, inside its
// per-message folder.
const emlFileName = "full_email.eml"

// seenFileName tracks the UIDs that have already been downloaded, one per
// line.
const seenFileName = ".seen_uids"

// ErrNoSuchMail is returned when a stored message folder does not exist.
var ErrNoSuchMail = errors.New("no such stored mail")

// ErrAttachmentExtraction is returned by Save when the raw message was
// written to disk but its MIME structure could not be fully walked. The
// download itself succeeded; callers should report the error and move on.
var ErrAttachmentExtraction = errors.New("failed to extract attachments from stored mail")

// Store is the offline mail store: one folder per downloaded message,
// holding the raw .eml plus any extracted attachments, and a seen-UID file
// so messages are only downloaded once.
type Store struct {
	dir  string
	seen map[string]struct{}
}

// StoredMail describes one message in the store.
type StoredMail struct {
	// Folder is the message folder name relative to the store directory
	Folder string

	From    string
	Subject string
	Date    time.Time

	// Attachments lists the extracted attachment file names
	Attachments []string
}

// OpenStore opens (creating if needed) the offline store at dir and loads
// the seen-UID index.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &Store{dir: dir, seen: make(map[string]struct{})}

	f, err := os.Open(filepath.Join(dir, seenFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if uid := strings.TrimSpace(scanner.Text()); uid != "" {
			s.seen[uid] = struct{}{}
		}
	}
	return s, scanner.Err()
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Seen reports whether the given UID has been downloaded before.
func (s *Store) Seen(uid string) bool {
	_, ok := s.seen[uid]
	return ok
}

// MarkSeen records the UID in the index file.
func (s *Store) MarkSeen(uid string) error {
	if s.Seen(uid) {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(s.dir, seenFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, uid); err != nil {
		return err
	}
	s.seen[uid] = struct{}{}
	return nil
}

// Save writes a raw message into its own folder, extracts its attachments
// and returns the folder name plus the number of attachments written. The
// UID is not marked seen here; callers do that once they are done with the
// message.
func (s *Store) Save(uid string, raw []byte) (string, int, error) {
	subject := "no_subject"
	if mr, err := mail.CreateReader(bytes.NewReader(raw)); err == nil {
		if subj, err := mr.Header.Subject(); err == nil && subj != "" {
			subject = subj
		}
	}

	folder, err := uniqueName(s.dir, sanitizeName(uid+"_"+subject, 100))
	if err != nil {
		return "", 0, err
	}
	msgDir := filepath.Join(s.dir, folder)
	if err := os.MkdirAll(msgDir, 0o755); err != nil {
		return "", 0, err
	}
	if err := os.WriteFile(filepath.Join(msgDir, emlFileName), raw, 0o644); err != nil {
		return "", 0, err
	}

	count, err := extractAttachments(raw, msgDir)
	if err != nil {
		// The raw message is already on disk at this point
		return folder, count, fmt.Errorf("%w: %s", ErrAttachmentExtraction, err)
	}
	return folder, count, nil
}

// List returns the stored messages sorted by folder name.
func (s *Store) List() ([]StoredMail, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var mails []StoredMail
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sm, err := s.stat(entry.Name())
		if err != nil {
			continue
		}
		mails = append(mails, *sm)
	}
	sort.Slice(mails, func(i, j int) bool { return mails[i].Folder < mails[j].Folder })
	return mails, nil
}

// Read returns the metadata and decoded text body of a stored message.
func (s *Store) Read(folder string) (*StoredMail, string, error) {
	sm, err := s.stat(folder)
	if err != nil {
		return nil, "", err
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, folder, emlFileName))
	if err != nil {
		return nil, "", err
	}
	body, err := textBody(raw)
	if err != nil {
		return sm, "", nil
	}
	return sm, body, nil
}

// stat reads the header of a stored message and its attachment inventory.
func (s *Store) stat(folder string) (*StoredMail, error) {
	msgDir := filepath.Join(s.dir, folder)
	raw, err := os.ReadFile(filepath.Join(msgDir, emlFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoSuchMail, folder)
		}
		return nil, err
	}

	sm := &StoredMail{Folder: folder}
	if mr, err := mail.CreateReader(bytes.NewReader(raw)); err == nil {
		if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
			sm.From = from[0].String()
		}
		if subj, err := mr.Header.Subject(); err == nil {
			sm.Subject = subj
		}
		if date, err := mr.Header.Date(); err == nil {
			sm.Date = date
		}
	}

	entries, err := os.ReadDir(msgDir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == emlFileName {
			continue
		}
		sm.Attachments = append(sm.Attachments, entry.Name())
	}
	return sm, nil
}

// extractAttachments walks the MIME parts of a raw message and writes every
// attachment into dir. Returns the number of files written.
func extractAttachments(raw []byte, dir string) (int, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}

	count := 0
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		header, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, err := header.Filename()
		if err != nil || filename == "" {
			continue
		}
		filename, err = uniqueName(dir, sanitizeName(filename, 100))
		if err != nil {
			return count, err
		}

		f, err := os.Create(filepath.Join(dir, filename))
		if err != nil {
			return count, err
		}
		if _, err := io.Copy(f, part.Body); err != nil {
			_ = f.Close()
			return count, err
		}
		if err := f.Close(); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// textBody extracts the first text part of a message, preferring text/plain
// over text/html.
func textBody(raw []byte) (string, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}

	var html string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		mediaType, _, err := header.ContentType()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch mediaType {
		case "text/plain":
			return strings.TrimSpace(string(content)), nil
		case "text/html":
			if html == "" {
				html = strings.TrimSpace(string(content))
			}
		}
	}
	return html, nil
}

// sanitizeName strips path separators, control characters and the characters
// Windows refuses from a file or folder name, and bounds its length in runes
// so multibyte subjects are never cut mid-character.
func sanitizeName(name string, maxLen int) string {
	mapped := strings.Map(func(r rune) rune {
		if r < 0x20 {
			return -1
		}
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, name)
	mapped = strings.Join(strings.Fields(mapped), " ")
	mapped = strings.TrimRight(mapped, " .")
	if runes := []rune(mapped); len(runes) > maxLen {
		mapped = strings.TrimRight(string(runes[:maxLen]), " .")
	}
	if mapped == "" || mapped == "." || mapped == ".." {
		return "no_subject"
	}
	return mapped
}

// uniqueName appends a counter suffix until name does not collide with an
// existing entry in dir. A stat failure that is not "does not exist" is
// returned instead of being retried forever.
func uniqueName(dir, name string) (string, error) {
	candidate := name
	for i := 1; ; i++ {
		_, err := os.Stat(filepath.Join(dir, candidate))
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		ext := filepath.Ext(name)
		candidate = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), i, ext)
	}
}
