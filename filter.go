package research

import (
	"math"
	"net/url"
	"slices"
	"strings"
)

// trackingParams are query parameters that never change the resource a URL
// points to.
var trackingParams = map[string]bool{
	"fbclid":   true,
	"gclid":    true,
	"dclid":    true,
	"msclkid":  true,
	"yclid":    true,
	"igshid":   true,
	"mc_cid":   true,
	"mc_eid":   true,
	"ref":      true,
	"ref_src":  true,
	"_ga":      true,
	"_hsenc":   true,
	"_hsmi":    true,
	"si":       true,
	"spm":      true,
	"cmpid":    true,
	"ncid":     true,
	"ocid":     true,
	"sr_share": true,
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	return strings.HasPrefix(key, "utm_") || trackingParams[key]
}

// CanonicalURL normalizes a URL for deduplication: scheme and host are
// lowercased, default ports, fragments and tracking parameters are removed,
// remaining parameters are sorted and a trailing slash is dropped.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", Errorf(EINVALID, "invalid url %q: %v", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", Errorf(EINVALID, "url %q must be absolute", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = host + ":" + port
	}
	u.Host = host
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	query := u.Query()
	for key := range query {
		if isTrackingParam(key) {
			query.Del(key)
		}
	}
	u.RawQuery = query.Encode()
	u.ForceQuery = false

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return u.String(), nil
}

// FilterCandidates deduplicates candidates by canonical URL (first seen
// wins), drops those scoring below threshold, orders non-paywalled sources
// first and by descending score, and truncates to maxResults. A maxResults
// of zero or less keeps every surviving candidate. The input is not modified.
func FilterCandidates(candidates []Candidate, threshold float64, maxResults int) ([]Candidate, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, Errorf(EINVALID, "relevance threshold must be within [0, 1], got %v", threshold)
	}
	if len(candidates) == 0 {
		return []Candidate{}, nil
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		key, err := CanonicalURL(c.URL)
		if err != nil {
			key = strings.ToLower(strings.TrimRight(strings.TrimSpace(c.URL), "/"))
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		if c.RelevanceScore < threshold {
			continue
		}
		out = append(out, c)
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		if a.Paywalled != b.Paywalled {
			if a.Paywalled {
				return 1
			}
			return -1
		}
		switch {
		case a.RelevanceScore > b.RelevanceScore:
			return -1
		case a.RelevanceScore < b.RelevanceScore:
			return 1
		}
		return 0
	})

	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}
