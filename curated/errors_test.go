// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

package curated_test

import (
	"fmt"
	"testing"

	"github.com/jetsetilly/agb/curated"
)

const testError = "test error: %s"
const testErrorB = "test error B: %s"

func TestDuplicateErrors(t *testing.T) {
	e := curated.Errorf(testError, "foo")
	if e.Error() != "test error: foo" {
		t.Fatalf("got %q", e.Error())
	}

	// packing errors of the same type next to each other causes
	// one of them to be dropped
	f := curated.Errorf(testError, e)
	if f.Error() != "test error: foo" {
		t.Fatalf("got %q", f.Error())
	}
}

func TestIs(t *testing.T) {
	e := curated.Errorf(testError, "foo")
	if !curated.Is(e, testError) {
		t.Fatal("expected Is() success")
	}

	// Has() should fail because we haven't included testErrorB anywhere in the error
	if curated.Has(e, testErrorB) {
		t.Fatal("expected Has() failure")
	}

	// packing errors of the same type next to each other causes
	// one of them to be dropped
	f := curated.Errorf(testErrorB, e)
	if curated.Is(f, testError) {
		t.Fatal("expected Is() failure")
	}
	if !curated.Is(f, testErrorB) {
		t.Fatal("expected Is() success")
	}
	if !curated.Has(f, testError) {
		t.Fatal("expected Has() success")
	}
	if !curated.Has(f, testErrorB) {
		t.Fatal("expected Has() success")
	}

	// IsAny should return true for these errors also
	if !curated.IsAny(e) {
		t.Fatal("expected IsAny() success")
	}
	if !curated.IsAny(f) {
		t.Fatal("expected IsAny() success")
	}
}

func TestPlainErrors(t *testing.T) {
	// test plain errors that haven't been formatted with our errors package

	e := fmt.Errorf("plain test error")
	if curated.IsAny(e) {
		t.Fatal("expected IsAny() failure")
	}

	const testError = "test error: %s"

	if curated.Has(e, testError) {
		t.Fatal("expected Has() failure")
	}
}

func TestWrapping(t *testing.T) {
	a := 10
	e := curated.Errorf("error: value = %d", a)
	f := curated.Errorf("fatal: %v", e)

	if !curated.Has(f, "error: value = %d") {
		t.Fatal("expected Has() success")
	}
	if curated.Is(f, "error: value = %d") {
		t.Fatal("expected Is() failure")
	}
	if !curated.Has(f, "fatal: %v") {
		t.Fatal("expected Has() success")
	}
	if !curated.Is(f, "fatal: %v") {
		t.Fatal("expected Is() success")
	}

	if f.Error() != "fatal: error: value = 10" {
		t.Fatalf("got %q", f.Error())
	}
}
