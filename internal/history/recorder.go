// Package history keeps snapshots of the hide-list in a local git
// repository so changes made on the device can be reviewed later.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hidectl/internal/models"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// FileName is the snapshot file tracked in the repository
const FileName = "hidelist.txt"

// ErrNoHistory is returned when nothing has been recorded yet
var ErrNoHistory = errors.New("no snapshot recorded")

// Recorder commits hide-list snapshots to a git repository
type Recorder struct {
	Path string
	repo *git.Repository
	now  func() time.Time
}

// Snapshot is one recorded commit
type Snapshot struct {
	Hash    string
	Message string
	When    time.Time
}

// Open opens the history repository at dir, initialising it on first use
func Open(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", dir, err)
	}

	return &Recorder{Path: dir, repo: repo, now: time.Now}, nil
}

func (r *Recorder) signature() *object.Signature {
	return &object.Signature{
		Name:  "hidectl",
		Email: "hidectl@localhost",
		When:  r.now(),
	}
}

// Record writes set to the snapshot file and commits it.
// It reports false without committing when the set equals the last snapshot.
func (r *Recorder) Record(set models.HideSet, message string) (bool, error) {
	content := Format(set)

	last, err := r.lastContent()
	switch {
	case err == nil && last == content:
		return false, nil
	case err != nil && !errors.Is(err, ErrNoHistory):
		return false, err
	}

	path := filepath.Join(r.Path, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, err
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return false, err
	}
	if _, err := worktree.Add(FileName); err != nil {
		return false, err
	}

	if message == "" {
		message = fmt.Sprintf("Snapshot: %d hidden", len(set))
	}
	sig := r.signature()
	if _, err := worktree.Commit(message, &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return false, fmt.Errorf("commit snapshot: %w", err)
	}
	return true, nil
}

// Last returns the most recently recorded set
func (r *Recorder) Last() (models.HideSet, error) {
	content, err := r.lastContent()
	if err != nil {
		return nil, err
	}
	return Parse(content), nil
}

func (r *Recorder) lastContent() (string, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", ErrNoHistory
	}
	if err != nil {
		return "", err
	}

	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", err
	}
	file, err := commit.File(FileName)
	if errors.Is(err, object.ErrFileNotFound) {
		return "", ErrNoHistory
	}
	if err != nil {
		return "", err
	}
	return file.Contents()
}

// Log returns up to count snapshots, newest first
func (r *Recorder) Log(count int) ([]Snapshot, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var snapshots []Snapshot
	for len(snapshots) < count {
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}
		snapshots = append(snapshots, Snapshot{
			Hash:    c.Hash.String()[:7],
			Message: strings.Split(c.Message, "\n")[0],
			When:    c.Author.When,
		})
	}
	return snapshots, nil
}

// Format renders set as sorted lines, one package per line
func Format(set models.HideSet) string {
	var b strings.Builder
	for _, pkg := range set.Sorted() {
		b.WriteString(pkg)
		b.WriteByte('\n')
	}
	return b.String()
}

// Parse reads a snapshot file. Blank lines and # comments are ignored.
func Parse(content string) models.HideSet {
	set := models.NewHideSet()
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set.Add(line)
	}
	return set
}
