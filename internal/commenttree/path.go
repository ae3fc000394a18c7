// Package commenttree encodes threaded comments as materialized paths.
//
// Every node stores the concatenation of fixed-width base-36 steps from the
// root down to itself. Sorting nodes by path yields pre-order with siblings
// in creation order, and the descendants of a node are exactly the paths in
// the open range (path, path+"~").
package commenttree

import (
	"errors"
)

const (
	// StepLen is the width of one path step
	StepLen = 4

	// MarginStep is the horizontal indent per nesting level
	MarginStep = 20

	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// rangeEnd sorts after every alphabet character
	rangeEnd = "~"
)

// MaxSiblings is the largest ordinal a single step can hold
var MaxSiblings = pow(len(alphabet), StepLen) - 1

var (
	ErrTooManyChildren = errors.New("commenttree: sibling limit reached")
	ErrInvalidOrdinal  = errors.New("commenttree: ordinal must be positive")
)

// Step encodes a 1-based sibling ordinal as a fixed-width step
func Step(ordinal int) (string, error) {
	if ordinal <= 0 {
		return "", ErrInvalidOrdinal
	}
	if ordinal > MaxSiblings {
		return "", ErrTooManyChildren
	}

	buf := make([]byte, StepLen)
	for i := StepLen - 1; i >= 0; i-- {
		buf[i] = alphabet[ordinal%len(alphabet)]
		ordinal /= len(alphabet)
	}
	return string(buf), nil
}

// RootPath is the path of the synthetic root comment of every post
func RootPath() string {
	step, _ := Step(1)
	return step
}

// ChildPath returns the path of the ordinal-th child of parent
func ChildPath(parent string, ordinal int) (string, error) {
	step, err := Step(ordinal)
	if err != nil {
		return "", err
	}
	return parent + step, nil
}

// Depth returns the nesting level of path; the root has depth 1
func Depth(path string) int {
	return len(path) / StepLen
}

// AncestorPaths lists the proper ancestors of path, root first
func AncestorPaths(path string) []string {
	depth := Depth(path)
	if depth <= 1 {
		return []string{}
	}
	ancestors := make([]string, 0, depth-1)
	for d := 1; d < depth; d++ {
		ancestors = append(ancestors, path[:d*StepLen])
	}
	return ancestors
}

// SubtreeRange returns the exclusive bounds enclosing the descendants of path
func SubtreeRange(path string) (lo, hi string) {
	return path, path + rangeEnd
}

// Margin returns the indent for a node rendered at depth.
// First-level comments (depth 2) get no indent.
func Margin(depth int) int {
	return (depth - 2) * MarginStep
}

func pow(base, exp int) int {
	result := 1
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
