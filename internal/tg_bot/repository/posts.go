package repository

import (
	"fmt"
	"io"
	"sync"
)

// PostJournal appends the texts users submit for analysis to a writer, one
// delimited block per post.
type PostJournal struct {
	w  io.Writer
	mu sync.Mutex // Keeps blocks from interleaving
}

// NewPostJournal creates a journal writing to w.
func NewPostJournal(w io.Writer) *PostJournal {
	return &PostJournal{w: w}
}

// Record writes one post as "-----\n<userID>\n<post>\n-----\n\n".
func (j *PostJournal) Record(userID int64, post string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := fmt.Fprintf(j.w, "-----\n%d\n%s\n-----\n\n", userID, post); err != nil {
		return fmt.Errorf("write post of user %d: %w", userID, err)
	}
	return nil
}
