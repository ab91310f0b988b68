package pdf

import (
	"fmt"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/extraction"
)

// RiskLevel buckets a risk score
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Score thresholds of the medium and high levels, and the URL length above
// which a link counts as long.
const (
	mediumRiskScore = 3
	highRiskScore   = 7
	longURLRunes    = 200
)

var (
	defaultSuspiciousTLDs = []string{"xyz", "top", "click", "link", "rest", "gq", "ml", "cf", "tk"}
	defaultTrackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "fbclid", "gclid", "mc_eid"}

	// Cyrillic and Greek letters that render like Latin ones
	defaultHomoglyphs = map[rune]rune{
		'а': 'a',
		'е': 'e',
		'і': 'i',
		'ο': 'o',
		'р': 'p',
		'ѕ': 's',
		'у': 'y',
	}

	anchorToken = regexp.MustCompile(`[a-z0-9._-]+`)
)

// RiskReason is one rule that fired for a link
type RiskReason struct {
	RuleID      string `json:"rule_id" yaml:"rule_id"`
	Description string `json:"description" yaml:"description"`
	Weight      int    `json:"weight" yaml:"weight"`
}

// LinkRisk is the offline risk verdict for one external link
type LinkRisk struct {
	Page       int          `json:"page,omitempty" yaml:"page,omitempty"`
	URL        string       `json:"url" yaml:"url"`
	AnchorText string       `json:"anchor_text,omitempty" yaml:"anchor_text,omitempty"`
	Score      int          `json:"score" yaml:"score"`
	Level      RiskLevel    `json:"level" yaml:"level"`
	Reasons    []RiskReason `json:"reasons" yaml:"reasons"`
}

// RiskSummary counts the scored links per level
type RiskSummary struct {
	TotalExternal int `json:"total_external" yaml:"total_external"`
	Scored        int `json:"scored" yaml:"scored"`
	HighRisk      int `json:"high_risk" yaml:"high_risk"`
	MediumRisk    int `json:"medium_risk" yaml:"medium_risk"`
	LowRisk       int `json:"low_risk" yaml:"low_risk"`
}

// RiskReport is the risk section of a link check
type RiskReport struct {
	Summary RiskSummary `json:"risk_summary" yaml:"risk_summary"`
	Details []LinkRisk  `json:"risk_details" yaml:"risk_details"`
}

// RiskScorer rates external links with fixed heuristics: raw IP hosts,
// suspicious TLDs, odd ports, long URLs, tracking parameters, anchor text
// naming another host and homoglyphs. It never touches the network and the
// score says nothing about what the target actually serves.
type RiskScorer struct {
	suspiciousTLDs map[string]bool
	trackingParams map[string]bool
	homoglyphs     map[rune]rune
}

// NewRiskScorer creates a scorer with the built-in rule tables
func NewRiskScorer() *RiskScorer {
	s := &RiskScorer{
		suspiciousTLDs: make(map[string]bool, len(defaultSuspiciousTLDs)),
		trackingParams: make(map[string]bool, len(defaultTrackingParams)),
		homoglyphs:     defaultHomoglyphs,
	}
	for _, tld := range defaultSuspiciousTLDs {
		s.suspiciousTLDs[tld] = true
	}
	for _, p := range defaultTrackingParams {
		s.trackingParams[p] = true
	}
	return s
}

// Score rates every URI link of links. Links of other types are not
// external and are left out.
func (s *RiskScorer) Score(links []extraction.LinkRecord) *RiskReport {
	report := &RiskReport{Details: make([]LinkRisk, 0)}

	for _, link := range links {
		if link.Type != extraction.LinkTypeURI {
			continue
		}
		report.Summary.TotalExternal++

		target := link.URL
		if target == "" {
			target = link.Target
		}
		if target == "" {
			continue
		}

		anchor := link.LinkText
		if anchor == extraction.EmptyLinkText {
			anchor = ""
		}

		risk := s.ScoreLink(target, anchor)
		risk.Page = link.Page
		report.Details = append(report.Details, risk)

		switch risk.Level {
		case RiskHigh:
			report.Summary.HighRisk++
		case RiskMedium:
			report.Summary.MediumRisk++
		default:
			report.Summary.LowRisk++
		}
	}

	report.Summary.Scored = len(report.Details)
	return report
}

// ScoreLink rates one URL. anchor is the visible link text, empty when
// unknown.
func (s *RiskScorer) ScoreLink(rawURL, anchor string) LinkRisk {
	risk := LinkRisk{URL: rawURL, AnchorText: anchor, Reasons: make([]RiskReason, 0)}
	add := func(id, desc string, weight int) {
		risk.Reasons = append(risk.Reasons, RiskReason{RuleID: id, Description: desc, Weight: weight})
		risk.Score += weight
	}

	var host, port, path string
	var query url.Values
	if u, err := url.Parse(rawURL); err == nil {
		host = strings.ToLower(u.Hostname())
		port = u.Port()
		path = u.Path
		query, _ = url.ParseQuery(u.RawQuery)
	}

	if _, err := netip.ParseAddr(host); err == nil {
		add("ip_host", "URL uses a raw IP address.", 3)
	}

	if i := strings.LastIndexByte(host, '.'); i >= 0 {
		if tld := host[i+1:]; s.suspiciousTLDs[tld] {
			add("suspicious_tld", fmt.Sprintf("TLD '.%s' is suspicious.", tld), 2)
		}
	}

	if port != "" && port != "80" && port != "443" {
		add("nonstandard_port", fmt.Sprintf("Non-standard port %s.", port), 2)
	}

	if utf8.RuneCountInString(rawURL) > longURLRunes {
		add("long_url", "URL is unusually long.", 1)
	}

	if hits := s.trackingHits(query); hits > 0 {
		add("tracking_params", fmt.Sprintf("%d tracking parameters found.", hits), 1)
	}

	if anchor != "" && host != "" && anchorMismatch(anchor, host) {
		add("anchor_mismatch", "Anchor text does not match URL host.", 3)
	}

	if s.hasHomoglyph(host + path) {
		add("homoglyph_suspected", "URL contains homoglyph characters.", 3)
	}

	switch {
	case risk.Score >= highRiskScore:
		risk.Level = RiskHigh
	case risk.Score >= mediumRiskScore:
		risk.Level = RiskMedium
	default:
		risk.Level = RiskLow
	}
	return risk
}

// trackingHits counts the tracking parameters that carry a value.
func (s *RiskScorer) trackingHits(query url.Values) int {
	hits := 0
	for key, values := range query {
		if !s.trackingParams[strings.ToLower(key)] {
			continue
		}
		for _, v := range values {
			if v != "" {
				hits++
				break
			}
		}
	}
	return hits
}

func (s *RiskScorer) hasHomoglyph(text string) bool {
	for _, r := range text {
		if _, ok := s.homoglyphs[r]; ok {
			return true
		}
	}
	return false
}

// anchorMismatch reports whether the anchor names something the host does
// not contain: a dotted token, or any word of four or more characters.
func anchorMismatch(anchor, host string) bool {
	anchor = strings.ToLower(strings.TrimSpace(anchor))
	host = strings.ToLower(strings.TrimSpace(host))

	for _, token := range anchorToken.FindAllString(anchor, -1) {
		if strings.Contains(token, ".") || len(token) >= 4 {
			if !strings.Contains(host, token) {
				return true
			}
		}
	}
	return false
}
