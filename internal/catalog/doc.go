// Package catalog holds the fixed set of languages voxlate can translate
// into, mapping human-readable names to translation engine language codes.
package catalog
