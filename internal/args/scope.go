package args

import (
	"errors"
	"sync/atomic"
)

// ErrTokenRestored is returned when a token is restored more than once.
var ErrTokenRestored = errors.New("args: token already restored")

// ErrForeignToken is returned when a token is restored into a bundle other
// than the one that issued it.
var ErrForeignToken = errors.New("args: token belongs to a different bundle")

// Token captures the bundle state taken by Override. It is consumed by the
// first call to Restore.
type Token struct {
	owner    *Bundle
	snapshot map[string]string
	restored atomic.Bool
}

// Restored reports whether the token has already been consumed.
func (t *Token) Restored() bool {
	return t.restored.Load()
}

// Override snapshots the bundle and merges pairs into it. Keys not named in
// pairs are left untouched; when a key repeats, the last pair wins.
func (b *Bundle) Override(pairs []Pair) *Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	tok := &Token{owner: b, snapshot: copyMap(b.values)}
	for _, p := range pairs {
		b.values[p.Key] = p.Value
	}
	return tok
}

// Restore puts back exactly the key/value pairs captured by tok. Keys added
// since the override are removed, changed keys get their old value back.
func (b *Bundle) Restore(tok *Token) error {
	if tok == nil || tok.owner != b {
		return ErrForeignToken
	}
	if !tok.restored.CompareAndSwap(false, true) {
		return ErrTokenRestored
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.values = copyMap(tok.snapshot)
	return nil
}

// Scoped overrides the bundle with pairs, runs fn and restores the bundle
// regardless of how fn exits, including a panic.
func (b *Bundle) Scoped(pairs []Pair, fn func() error) (err error) {
	tok := b.Override(pairs)
	defer func() {
		if rerr := b.Restore(tok); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn()
}
