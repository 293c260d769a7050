// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package pii

// MaskHits returns a copy of a search response with the _source of every
// hit redacted. Hit metadata (_id, _index, _score, sort) is never touched.
func (m *Masker) MaskHits(result map[string]any) map[string]any {
	if !m.Enabled() || result == nil {
		return result
	}

	hitsObj, ok := result["hits"].(map[string]any)
	if !ok {
		return result
	}
	list, ok := hitsObj["hits"].([]any)
	if !ok {
		return result
	}

	maskedList := make([]any, len(list))
	for i, h := range list {
		maskedList[i] = m.MaskHit(h)
	}

	newHits := make(map[string]any, len(hitsObj))
	for k, v := range hitsObj {
		newHits[k] = v
	}
	newHits["hits"] = maskedList

	out := make(map[string]any, len(result))
	for k, v := range result {
		out[k] = v
	}
	out["hits"] = newHits
	return out
}

// MaskHit redacts the _source of a single hit object.
func (m *Masker) MaskHit(hit any) any {
	h, ok := hit.(map[string]any)
	if !ok || !m.Enabled() {
		return hit
	}
	src, ok := h["_source"]
	if !ok {
		return hit
	}

	out := make(map[string]any, len(h))
	for k, v := range h {
		out[k] = v
	}
	out["_source"] = m.Mask(src)
	return out
}
