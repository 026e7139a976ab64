// Package borough resolves user-facing borough labels to the labels present in
// the loaded dataset.
package borough

import (
	"strings"

	"github.com/KaramelBytes/pedlens/internal/dataset"
)

// Resolver is one step of the resolution chain. It returns the matching known
// labels, or nothing to let the next step try.
type Resolver interface {
	Resolve(label string, known []string) []string
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(label string, known []string) []string

func (f ResolverFunc) Resolve(label string, known []string) []string { return f(label, known) }

// Expansions maps a group label to the dataset labels it stands for. The group
// label itself comes first so that re-normalizing the first result is stable.
var Expansions = map[string][]string{
	"Bridges": {"Bridges", "East River Bridges", "Harlem River Bridges"},
}

// Aliases maps a label to its interchangeable dataset labels. Unlike expansions
// these only apply once exact and partial matching have failed.
var Aliases = map[string][]string{
	"The Bronx": {"Bronx", "The Bronx"},
	"Bronx":     {"Bronx", "The Bronx"},
}

// DefaultChain is the resolution order used by Normalize.
var DefaultChain = []Resolver{
	ResolverFunc(Expand),
	ResolverFunc(Exact),
	ResolverFunc(CaseInsensitive),
	ResolverFunc(Substring),
	ResolverFunc(Alias),
}

// Normalize returns the known labels that correspond to label. The first resolver
// producing a match wins; an unresolved label is returned unchanged so it still
// takes part in filtering.
func Normalize(label string, known []string) []string {
	return NormalizeWith(DefaultChain, label, known)
}

// NormalizeWith runs a custom resolver chain.
func NormalizeWith(chain []Resolver, label string, known []string) []string {
	for _, r := range chain {
		if out := r.Resolve(label, known); len(out) > 0 {
			return out
		}
	}
	return []string{label}
}

// NormalizeAll resolves every label and returns the union as a lookup set.
func NormalizeAll(labels []string, known []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		for _, n := range Normalize(l, known) {
			set[n] = struct{}{}
		}
	}
	return set
}

// Expand resolves a group label to every member present in known. It only fires
// when the group label is itself a known label; otherwise the partial matchers
// pick a single member.
func Expand(label string, known []string) []string {
	if !contains(known, label) {
		return nil
	}
	return present(Expansions[label], known)
}

// Alias substitutes labels from the alias table, keeping only labels present in known.
func Alias(label string, known []string) []string {
	return present(Aliases[label], known)
}

func present(labels, known []string) []string {
	var out []string
	for _, l := range labels {
		if contains(known, l) {
			out = append(out, l)
		}
	}
	return out
}

// Exact matches label verbatim.
func Exact(label string, known []string) []string {
	if contains(known, label) {
		return []string{label}
	}
	return nil
}

// CaseInsensitive matches the first known label equal under case folding.
func CaseInsensitive(label string, known []string) []string {
	for _, k := range known {
		if k != "" && strings.EqualFold(k, label) {
			return []string{k}
		}
	}
	return nil
}

// Substring matches the first known label, in known order, that contains label
// or is contained in it.
func Substring(label string, known []string) []string {
	if label == "" {
		return nil
	}
	for _, k := range known {
		if k == "" {
			continue
		}
		if strings.Contains(k, label) || strings.Contains(label, k) {
			return []string{k}
		}
	}
	return nil
}

// KnownLabels returns the distinct non-empty boroughs in first-seen order.
func KnownLabels(records []dataset.Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if r.Borough == "" {
			continue
		}
		if _, ok := seen[r.Borough]; ok {
			continue
		}
		seen[r.Borough] = struct{}{}
		out = append(out, r.Borough)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
