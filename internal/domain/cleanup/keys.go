package cleanup

import (
	"strings"

	"dropapp/internal/domain/generation"
)

// ObjectKey derives the bucket-relative key from a stored asset URL: the part
// after the last occurrence of marker, without query or fragment.
func ObjectKey(assetURL, marker string) (string, bool) {
	if marker == "" || !strings.Contains(assetURL, marker) {
		return "", false
	}
	parts := strings.Split(assetURL, marker)
	key := parts[len(parts)-1]
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if key == "" {
		return "", false
	}
	return key, true
}

// ObjectKeys collects the derivable keys of records in order, dropping
// duplicates. skipped counts records whose URL yielded no key.
func ObjectKeys(records []*generation.Generation, marker string) (keys []string, skipped int) {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if !r.HasAsset() {
			skipped++
			continue
		}
		key, ok := ObjectKey(*r.AssetURL, marker)
		if !ok {
			skipped++
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys, skipped
}
