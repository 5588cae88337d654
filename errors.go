// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package puffin

import "github.com/google/go-puffin/internal/perr"

// Kind classifies a failure raised anywhere in the transcoder.
type Kind = perr.Kind

const (
	InsufficientInput  = perr.InsufficientInput
	InsufficientOutput = perr.InsufficientOutput
	InvalidInput       = perr.InvalidInput
)

// Error is the error type returned by every exported puffin operation.
// It carries enough location information (a byte offset and a bit
// offset within that byte) to point a caller at the offending bit.
type Error = perr.Error
