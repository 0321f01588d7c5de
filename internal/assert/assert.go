// Package assert holds invariant checks that panic on programmer error.
package assert

import (
	"fmt"
)

func Length(value string, expected int) {
	if len(value) != expected {
		msg := fmt.Sprintf("assert.Length expected %d actual %d", expected, len(value))
		panic(msg)
	}
}

func NotEmpty(value, name string) {
	if value == "" {
		panic(fmt.Sprintf("assert.NotEmpty %s is empty", name))
	}
}
