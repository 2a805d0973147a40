package dto

import "sort"

func present(flags map[string]bool) []string {
	fields := make([]string, 0, len(flags))
	for name, ok := range flags {
		if ok {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Missing returns the required names absent from present.
func Missing(present []string, required []string) []string {
	have := make(map[string]struct{}, len(present))
	for _, name := range present {
		have[name] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
