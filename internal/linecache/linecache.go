// Package linecache memoizes line tokenization. TokenizeLine is a pure
// function of (grammar, state, line), so identical lines in the same state
// can share one result across documents and edits.
package linecache

import (
	"strconv"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/magnusknutas/genesis/genesis"
	"github.com/magnusknutas/genesis/internal/log"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute

	// DefaultMaxLineLength bounds the lines worth keeping; longer ones are
	// tokenized directly.
	DefaultMaxLineLength = 4096
)

// Tokenizer is the part of genesis.Tokenizer the cache wraps.
type Tokenizer interface {
	Grammar() genesis.Grammar
	TokenizeLine(state genesis.LexerState, lineNo int, line string) ([]genesis.Token, genesis.LexerState)
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits   int64
	Misses int64
	Items  int
}

type entry struct {
	tokens []genesis.Token
	state  genesis.LexerState
}

// Cache is a read-through cache in front of a Tokenizer. Safe for
// concurrent use.
type Cache struct {
	tokenizer     Tokenizer
	cache         *gocache.Cache
	maxLineLength int
	hits          atomic.Int64
	misses        atomic.Int64
}

// Options configures a Cache. Zero values select the defaults.
type Options struct {
	Expiration      time.Duration
	CleanupInterval time.Duration
	MaxLineLength   int
}

// New creates a cache in front of t.
func New(t Tokenizer, opts Options) *Cache {
	if opts.Expiration == 0 {
		opts.Expiration = DefaultExpiration
	}
	if opts.CleanupInterval == 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}
	if opts.MaxLineLength == 0 {
		opts.MaxLineLength = DefaultMaxLineLength
	}
	return &Cache{
		tokenizer:     t,
		cache:         gocache.New(opts.Expiration, opts.CleanupInterval),
		maxLineLength: opts.MaxLineLength,
	}
}

// Grammar returns the wrapped tokenizer's grammar.
func (c *Cache) Grammar() genesis.Grammar {
	return c.tokenizer.Grammar()
}

// TokenizeLine returns the same result as the wrapped tokenizer.
func (c *Cache) TokenizeLine(state genesis.LexerState, lineNo int, line string) ([]genesis.Token, genesis.LexerState) {
	if line == "" || len(line) > c.maxLineLength {
		return c.tokenizer.TokenizeLine(state, lineNo, line)
	}

	key := c.key(state, line)
	if v, found := c.cache.Get(key); found {
		if e, ok := v.(entry); ok {
			c.hits.Add(1)
			return relocate(e.tokens, lineNo), e.state
		}
		log.Error(log.CatCache, "wrong type assertion when getting value", "key", key)
	}

	c.misses.Add(1)
	tokens, next := c.tokenizer.TokenizeLine(state, 0, line)
	c.cache.Set(key, entry{tokens: tokens, state: next}, gocache.DefaultExpiration)
	return relocate(tokens, lineNo), next
}

// Stats returns a snapshot of hit/miss counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Items:  c.cache.ItemCount(),
	}
}

// Flush drops every cached line.
func (c *Cache) Flush() {
	c.cache.Flush()
	log.Debug(log.CatCache, "flushed")
}

func (c *Cache) key(state genesis.LexerState, line string) string {
	g := c.tokenizer.Grammar()
	return strconv.Itoa(int(g.Variant)) + ":" + strconv.Itoa(int(state)) + ":" + line
}

// relocate copies cached tokens onto line lineNo; cached slices are shared
// and must never be handed out directly.
func relocate(tokens []genesis.Token, lineNo int) []genesis.Token {
	if tokens == nil {
		return nil
	}
	out := make([]genesis.Token, len(tokens))
	copy(out, tokens)
	for i := range out {
		out[i].Span.Line = lineNo
	}
	return out
}
