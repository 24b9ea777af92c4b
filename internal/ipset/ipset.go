// Package ipset parses and fingerprints the remote root-server IP list.
package ipset

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ipPattern matches IPv4 address candidates; octet range is validated
// separately so "999.1.1.1" never slips through.
var ipPattern = regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)

// Parse extracts all valid IPv4 addresses from raw list content.
// The server may deliver the list newline-delimited, JSON-wrapped, or
// with surrounding noise; anything that looks like an address and has
// in-range octets counts. The result is deduplicated and sorted, so
// fetch order never affects the outcome.
func Parse(content string) []string {
	seen := make(map[string]struct{})
	for _, candidate := range ipPattern.FindAllString(content, -1) {
		if validOctets(candidate) {
			seen[candidate] = struct{}{}
		}
	}

	ips := make([]string, 0, len(seen))
	for ip := range seen {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return ips
}

// validOctets reports whether every dotted octet is in [0, 255].
func validOctets(ip string) bool {
	for _, part := range strings.Split(ip, ".") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

// Fingerprint returns a deterministic digest of the normalized IP set.
// Equal sets yield equal fingerprints regardless of input order or
// duplicates: the input is re-normalized before hashing.
func Fingerprint(ips []string) string {
	normalized := normalize(ips)
	h := sha256.New()
	for _, ip := range normalized {
		h.Write([]byte(ip))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// normalize dedupes and sorts without mutating the input slice.
func normalize(ips []string) []string {
	seen := make(map[string]struct{}, len(ips))
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		if _, ok := seen[ip]; ok {
			continue
		}
		seen[ip] = struct{}{}
		out = append(out, ip)
	}
	sort.Strings(out)
	return out
}

// Diff reports addresses present in next but not prev, and vice versa.
// Both results come back sorted.
func Diff(prev, next []string) (added, removed []string) {
	prevSet := make(map[string]struct{}, len(prev))
	for _, ip := range prev {
		prevSet[ip] = struct{}{}
	}
	nextSet := make(map[string]struct{}, len(next))
	for _, ip := range next {
		nextSet[ip] = struct{}{}
	}

	for ip := range nextSet {
		if _, ok := prevSet[ip]; !ok {
			added = append(added, ip)
		}
	}
	for ip := range prevSet {
		if _, ok := nextSet[ip]; !ok {
			removed = append(removed, ip)
		}
	}

	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
