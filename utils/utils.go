package utils

import (
	"fmt"
	"sort"
	"time"
)

// utility functions for common operations across services

func StringInSlice(a string, list []string) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}
	return false
}

func UniqueStrings(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	var out []string
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func SortedStringKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func LogElapsed(label string, start time.Time) {
	fmt.Printf("[%s] - %s completed in %s\n", time.Now().Format(time.RFC3339), label, time.Since(start))
}
