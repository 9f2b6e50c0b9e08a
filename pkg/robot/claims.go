package robot

import (
	"errors"
	"fmt"
	"sync"
)

// Group is a set of channels that must have a single writer.
type Group string

// Channel groups.
const (
	GroupWheels Group = "wheels"
	GroupArm    Group = "arm"
	GroupServos Group = "servos"
)

// ErrGroupClaimed is returned when a channel group already has a writer.
var ErrGroupClaimed = errors.New("channel group already has a writer")

// Claims records which owner writes each channel group.
type Claims struct {
	mu     sync.Mutex
	owners map[Group]string
}

// Claim registers owner as the writer of g.
func (c *Claims) Claim(g Group, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owners == nil {
		c.owners = make(map[Group]string)
	}
	if cur, ok := c.owners[g]; ok {
		return fmt.Errorf("claim %s for %s: %w (held by %s)", g, owner, ErrGroupClaimed, cur)
	}
	c.owners[g] = owner
	return nil
}

// Release drops the claim on g if owner holds it.
func (c *Claims) Release(g Group, owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owners[g] == owner {
		delete(c.owners, g)
	}
}

// Owner returns the current writer of g.
func (c *Claims) Owner(g Group) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	owner, ok := c.owners[g]
	return owner, ok
}
