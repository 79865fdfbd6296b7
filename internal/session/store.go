// Package session is the terminal client's local preference store: the
// "keep me signed in" flag, the last token and a per-title rating cache.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/recoilme/pudge"
	"github.com/sirupsen/logrus"
)

const (
	keyKeepLoggedIn = "keep_logged_in"
	keyToken        = "token"

	DefaultAutoLoginTimeout = 3 * time.Second
)

var (
	ErrNoToken = errors.New("no stored token")
	// ErrNotSignedIn means there is no kept session, or the server refused it.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrUnreachable means the server could not answer; the kept session survives.
	ErrUnreachable = errors.New("server unreachable")
	// ErrRejected is wrapped by probes when the server refuses the token.
	ErrRejected = errors.New("token rejected")
)

type Store struct {
	db  *pudge.Db
	log *logrus.Entry
}

// DefaultPath is ~/.seriesjp/session.db.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.db"
	}
	return filepath.Join(home, ".seriesjp", "session.db")
}

func Open(path string, log *logrus.Entry) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("session dir: %w", err)
	}
	db, err := pudge.Open(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// KeepLoggedIn defaults to false when never set or unreadable.
func (s *Store) KeepLoggedIn() bool {
	var v bool
	if err := s.db.Get(keyKeepLoggedIn, &v); err != nil {
		return false
	}
	return v
}

func (s *Store) SetKeepLoggedIn(v bool) error {
	if err := s.db.Set(keyKeepLoggedIn, v); err != nil {
		return fmt.Errorf("set keep logged in: %w", err)
	}
	return nil
}

func (s *Store) Token() (string, error) {
	var tok string
	err := s.db.Get(keyToken, &tok)
	if errors.Is(err, pudge.ErrKeyNotFound) || (err == nil && tok == "") {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return tok, nil
}

func (s *Store) SetToken(tok string) error {
	if err := s.db.Set(keyToken, tok); err != nil {
		return fmt.Errorf("set token: %w", err)
	}
	return nil
}

func (s *Store) ClearToken() error {
	err := s.db.Delete(keyToken)
	if err != nil && !errors.Is(err, pudge.ErrKeyNotFound) {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// SignedIn stores the token and turns the keep-session flag on.
func (s *Store) SignedIn(tok string) error {
	if err := s.SetToken(tok); err != nil {
		return err
	}
	return s.SetKeepLoggedIn(true)
}

// SignedOut forgets the token and turns the flag off.
func (s *Store) SignedOut() error {
	if err := s.ClearToken(); err != nil {
		return err
	}
	return s.SetKeepLoggedIn(false)
}

func ratingKey(kind string, id int64) string {
	return "rating_" + kind + "_" + strconv.FormatInt(id, 10)
}

// Rating returns the cached score, 0 when unknown.
func (s *Store) Rating(kind string, id int64) int {
	var v int
	if err := s.db.Get(ratingKey(kind, id), &v); err != nil {
		return 0
	}
	return v
}

func (s *Store) SetRating(kind string, id int64, score int) error {
	if err := s.db.Set(ratingKey(kind, id), score); err != nil {
		return fmt.Errorf("cache rating: %w", err)
	}
	return nil
}

// Probe asks the server who owns token.
type Probe func(ctx context.Context, token string) (userID string, err error)

// CheckAutoLogin returns the signed-in user id when the keep-session flag is on
// and the stored token is still accepted within timeout. The flag is cleared
// only when there is no token or the probe reports ErrRejected; timeouts and
// other probe errors return ErrUnreachable and leave it set.
func (s *Store) CheckAutoLogin(ctx context.Context, probe Probe, timeout time.Duration) (string, error) {
	if !s.KeepLoggedIn() {
		return "", ErrNotSignedIn
	}
	if timeout <= 0 {
		timeout = DefaultAutoLoginTimeout
	}

	signOut := func(reason string, err error) (string, error) {
		s.log.WithError(err).WithField("reason", reason).Info("auto-login skipped")
		if cerr := s.SetKeepLoggedIn(false); cerr != nil {
			s.log.WithError(cerr).Warn("could not clear keep-session flag")
		}
		return "", ErrNotSignedIn
	}
	unreachable := func(err error) (string, error) {
		s.log.WithError(err).Info("auto-login probe failed, keeping session")
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	tok, err := s.Token()
	if err != nil {
		return signOut("no token", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		id, err := probe(ctx, tok)
		done <- result{id, err}
	}()

	select {
	case r := <-done:
		switch {
		case errors.Is(r.err, ErrRejected):
			return signOut("rejected", r.err)
		case r.err != nil:
			return unreachable(r.err)
		case r.id == "":
			return signOut("rejected", errors.New("empty user id"))
		}
		return r.id, nil
	case <-ctx.Done():
		return unreachable(ctx.Err())
	}
}
