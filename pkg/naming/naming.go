// Package naming allocates collision-free display names for canvas nodes.
package naming

import (
	"strconv"
	"strings"
)

// GenerateUniqueName returns a name derived from base that does not appear in
// existing.
//
// A trailing " <integer>" suffix is stripped from base first. When the clean
// base is free and no numbered variant of it exists, the clean base is
// returned. Otherwise the result is "<base> <k>" for the smallest positive k
// not already taken. The bare base counts as suffix 0.
func GenerateUniqueName(base string, existing []string) string {
	clean := stripSuffix(base)

	used := make(map[int]struct{})
	for _, name := range existing {
		if name == clean {
			used[0] = struct{}{}
			continue
		}
		if n, ok := suffixOf(name, clean); ok {
			used[n] = struct{}{}
		}
	}

	if len(used) == 0 {
		return clean
	}

	k := 1
	for {
		if _, taken := used[k]; !taken {
			break
		}
		k++
	}
	return clean + " " + strconv.Itoa(k)
}

// stripSuffix removes a trailing " <integer>" from name.
func stripSuffix(name string) string {
	idx := strings.LastIndexByte(name, ' ')
	if idx < 0 {
		return name
	}
	if !isDigits(name[idx+1:]) {
		return name
	}
	return name[:idx]
}

// suffixOf reports the integer n when name is exactly "<base> <n>".
func suffixOf(name, base string) (int, bool) {
	rest, ok := strings.CutPrefix(name, base+" ")
	if !ok || !isDigits(rest) {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
