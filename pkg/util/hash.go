package util

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"unicode/utf8"
)

const maxDocIDBytes = 1500

// SelectionKey identifies a set of contact ids independent of order and duplicates.
// Two selections with the same membership always produce the same key.
func SelectionKey(contactIDs []string) string {
	ids := DistinctIDs(contactIDs)
	sort.Strings(ids)
	return hashString(strings.Join(ids, "|"))
}

// DistinctIDs trims ids and drops empties and repeats, keeping first-seen order.
func DistinctIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ValidDocID reports whether id can name a document in a Firestore
// collection: valid UTF-8, at most 1500 bytes, no '/', not '.' or '..',
// and not of the reserved form __x__.
func ValidDocID(id string) bool {
	if id == "" || len(id) > maxDocIDBytes || !utf8.ValidString(id) {
		return false
	}
	if id == "." || id == ".." || strings.Contains(id, "/") {
		return false
	}
	if len(id) >= 4 && strings.HasPrefix(id, "__") && strings.HasSuffix(id, "__") {
		return false
	}
	return true
}

// HashString returns the MD5 hash of an arbitrary string, case and whitespace insensitive.
func HashString(input string) string {
	return hashString(strings.TrimSpace(strings.ToLower(input)))
}

func hashString(input string) string {
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}
