package document

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/magnusknutas/genesis/internal/log"
)

// ErrDocumentNotFound is returned for unknown or closed document IDs.
var ErrDocumentNotFound = errors.New("document not found")

// Workspace holds independently tokenized documents, one per open buffer.
// Documents share the tokenizer (and its cache) but never lexer state.
type Workspace struct {
	mu        sync.RWMutex
	tokenizer LineTokenizer
	docs      map[string]*Document
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(t LineTokenizer) *Workspace {
	return &Workspace{
		tokenizer: t,
		docs:      make(map[string]*Document),
	}
}

// Open tokenizes text as a new document and returns its ID.
func (w *Workspace) Open(text string) string {
	doc := New(w.tokenizer, text)
	id := uuid.NewString()

	w.mu.Lock()
	w.docs[id] = doc
	w.mu.Unlock()

	log.Debug(log.CatDoc, "opened document", "id", id, "lines", doc.LineCount())
	return id
}

// Get returns an open document.
func (w *Workspace) Get(id string) (*Document, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	doc, ok := w.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return doc, nil
}

// Close forgets a document.
func (w *Workspace) Close(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.docs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	delete(w.docs, id)
	log.Debug(log.CatDoc, "closed document", "id", id)
	return nil
}
