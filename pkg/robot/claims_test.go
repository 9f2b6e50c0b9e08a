package robot

import (
	"errors"
	"testing"
)

func TestClaims(t *testing.T) {
	var c Claims

	if err := c.Claim(GroupWheels, "drive"); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := c.Claim(GroupWheels, "heading"); !errors.Is(err, ErrGroupClaimed) {
		t.Errorf("second claim error = %v, want ErrGroupClaimed", err)
	}
	if err := c.Claim(GroupArm, "heading"); err != nil {
		t.Errorf("claim on another group: %v", err)
	}

	// Only the owner can release.
	c.Release(GroupWheels, "heading")
	if owner, _ := c.Owner(GroupWheels); owner != "drive" {
		t.Errorf("owner = %q after foreign release, want drive", owner)
	}

	c.Release(GroupWheels, "drive")
	if _, ok := c.Owner(GroupWheels); ok {
		t.Error("group still owned after release")
	}
	if err := c.Claim(GroupWheels, "heading"); err != nil {
		t.Errorf("claim after release: %v", err)
	}
}
