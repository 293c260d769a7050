// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package export

import "fmt"

// SizeError rejects an export larger than the configured ceiling.
type SizeError struct {
	Requested int
	Max       int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("requested export size %d exceeds the maximum of %d", e.Requested, e.Max)
}

// ResolveSize validates a requested row count. A missing or non-positive
// size means "up to the maximum".
func ResolveSize(requested, maxSize int) (int, error) {
	if requested <= 0 {
		return maxSize, nil
	}
	if requested > maxSize {
		return 0, &SizeError{Requested: requested, Max: maxSize}
	}
	return requested, nil
}
