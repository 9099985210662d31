// Package ttesting holds helpers shared by the package tests: small
// assertions that each run as their own subtest, and builders that produce
// synthetic .lod and .def files so no game data is needed to run tests.
package ttesting

import (
	"bytes"
	"image"
	"testing"

	"github.com/pkg/errors"
)

func AssertEqualInt(t *testing.T, name string, got, want int) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if got != want {
			t.Errorf("got %d; want %d", got, want)
		}
	})
}

func AssertEqualUint32(t *testing.T, name string, got, want uint32) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if got != want {
			t.Errorf("got %d; want %d", got, want)
		}
	})
}

func AssertEqualString(t *testing.T, name string, got, want string) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if got != want {
			t.Errorf("got %q; want %q", got, want)
		}
	})
}

func AssertEqualRect(t *testing.T, name string, got, want image.Rectangle) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if !got.Eq(want) || got.Min != want.Min {
			t.Errorf("got %v; want %v", got, want)
		}
	})
}

func AssertEqualBytes(t *testing.T, name string, got, want []byte) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if !bytes.Equal(got, want) {
			t.Errorf("got %d bytes %x; want %d bytes %x", len(got), got, len(want), want)
		}
	})
}

// AssertErrorIs checks that err wraps target.
func AssertErrorIs(t *testing.T, name string, err, target error) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if !errors.Is(err, target) {
			t.Errorf("got error %v; want one wrapping %v", err, target)
		}
	})
}
