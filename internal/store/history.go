package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SearchesSlot is the slot holding the JSON array of past search terms.
const SearchesSlot = "searches"

// ErrCorruptSlot is returned when a slot does not hold the expected JSON.
var ErrCorruptSlot = errors.New("store: corrupt slot")

// History is the persisted list of past search terms. Terms are distinct and
// kept in the order they were first searched; nothing is ever removed.
type History struct {
	store *Store
	slot  string
}

// NewHistory returns the search history kept in st.
func NewHistory(st *Store) *History {
	return &History{store: st, slot: SearchesSlot}
}

// List returns the stored terms in insertion order. A slot that was never
// written is an empty history.
func (h *History) List() ([]string, error) {
	raw, ok, err := h.store.GetSlot(h.slot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	return decodeTerms(raw)
}

// Add appends term unless it is blank or already present. The read, append
// and write happen in one transaction. A corrupt slot is overwritten with a
// history holding only term.
func (h *History) Add(term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	tx, err := h.store.db.Begin()
	if err != nil {
		return fmt.Errorf("begin history update: %w", err)
	}
	defer tx.Rollback()

	raw, ok, err := getSlot(tx, h.slot)
	if err != nil {
		return err
	}

	terms := []string{}
	if ok {
		if decoded, err := decodeTerms(raw); err == nil {
			terms = decoded
		}
	}

	for _, t := range terms {
		if t == term {
			return nil
		}
	}
	terms = append(terms, term)

	data, err := json.Marshal(terms)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := setSlot(tx, h.slot, string(data)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history update: %w", err)
	}
	return nil
}

func decodeTerms(raw string) ([]string, error) {
	var terms []string
	if err := json.Unmarshal([]byte(raw), &terms); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrCorruptSlot, SearchesSlot, err)
	}
	if terms == nil {
		terms = []string{}
	}
	return terms, nil
}
