package syncclient

import "linguaflow/internal/api"

// Merge combines a server snapshot with a local file, local values winning
// on key overlap within each namespace. There is no common-ancestor diff:
// when the same key changed on both sides the local edit silently wins.
// Neither input map is mutated.
func Merge(server, local api.TranslationMap) api.TranslationMap {
	merged := make(api.TranslationMap, len(server)+len(local))
	for namespace, keys := range server {
		out := make(map[string]string, len(keys))
		for key, value := range keys {
			out[key] = value
		}
		merged[namespace] = out
	}
	for namespace, keys := range local {
		out, ok := merged[namespace]
		if !ok {
			out = make(map[string]string, len(keys))
			merged[namespace] = out
		}
		for key, value := range keys {
			out[key] = value
		}
	}
	return merged
}
