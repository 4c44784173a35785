// Package glyph turns font data into alpha coverage masks and advance
// metrics for the engine's two text paths: regular fill text and the
// animated damage-number lane.
//
// A Source wraps either a parsed TTF/OTF (go-text/typesetting outlines
// scan-filled with x/image/vector) or the built-in 7x13 bitmap face, so
// text renders with zero font assets. Layout is advance-based with bidi
// run reordering; ligatures, kerning, and contextual shaping are not
// applied.
package glyph
