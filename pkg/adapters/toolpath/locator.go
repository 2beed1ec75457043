package toolpath

import (
	"context"
	"errors"
	"fmt"
)

// ErrToolNotFound is returned when no locator knows the requested tool.
var ErrToolNotFound = errors.New("tool not found")

// Locator resolves the path of an external tool by logical name.
type Locator interface {
	Locate(ctx context.Context, name string) (string, error)
}

// Static is a fixed name-to-path table.
type Static map[string]string

// Locate returns the configured path.
func (s Static) Locate(_ context.Context, name string) (string, error) {
	if p, ok := s[name]; ok && p != "" {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
}

// Chain tries each locator in turn and returns the first hit.
// A locator answering ErrToolNotFound passes to the next; any other error stops the search.
type Chain []Locator

// Locate implements Locator.
func (c Chain) Locate(ctx context.Context, name string) (string, error) {
	for _, l := range c {
		p, err := l.Locate(ctx, name)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrToolNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
}
