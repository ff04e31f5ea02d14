// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package hypia

import "fmt"

// BoundsError reports a box that does not lie within the image.
type BoundsError struct {
	Op            string
	Box           Box
	Height, Width int // spatial extent of the image
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("hypia: %s: box %v does not fit in %dx%d image", e.Op, e.Box, e.Height, e.Width)
}

// ShapeMismatchError reports a resize target whose channel count differs
// from the image's.
type ShapeMismatchError struct {
	Size     Size
	Channels int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("hypia: target shape %v does not match %d input channels", e.Size, e.Channels)
}

// ParseError reports a malformed pipeline or option string.
type ParseError struct {
	Input   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("hypia: malformed %q: %s", e.Input, e.Message)
}
