package pdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/extraction"
)

func ruleIDs(r LinkRisk) []string {
	ids := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		ids[i] = reason.RuleID
	}
	return ids
}

func TestRiskScorer_ScoreLink(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		anchor    string
		wantScore int
		wantLevel RiskLevel
		wantRules []string
	}{
		{
			name:      "plain https link",
			url:       "https://example.com/docs",
			wantLevel: RiskLow,
			wantRules: []string{},
		},
		{
			name:      "ipv4 host",
			url:       "http://192.168.0.1/login",
			wantScore: 3,
			wantLevel: RiskMedium,
			wantRules: []string{"ip_host"},
		},
		{
			name:      "ipv6 host on a standard port",
			url:       "https://[::1]:443/",
			wantScore: 3,
			wantLevel: RiskMedium,
			wantRules: []string{"ip_host"},
		},
		{
			name:      "suspicious tld, port and tracking",
			url:       "https://free-stuff.XYZ:8080/?utm_source=mail&fbclid=abc&page=2",
			wantScore: 5,
			wantLevel: RiskMedium,
			wantRules: []string{"suspicious_tld", "nonstandard_port", "tracking_params"},
		},
		{
			name:      "blank tracking parameter",
			url:       "https://example.com/?utm_source=",
			wantLevel: RiskLow,
			wantRules: []string{},
		},
		{
			name:      "long url",
			url:       "https://example.com/" + strings.Repeat("a", 200),
			wantScore: 1,
			wantLevel: RiskLow,
			wantRules: []string{"long_url"},
		},
		{
			name:      "anchor names the host",
			url:       "https://www.example.com/",
			anchor:    "Example.com",
			wantLevel: RiskLow,
			wantRules: []string{},
		},
		{
			name:      "anchor names another host",
			url:       "https://example.com/",
			anchor:    "Log in at paypal.com",
			wantScore: 3,
			wantLevel: RiskMedium,
			wantRules: []string{"anchor_mismatch"},
		},
		{
			name:      "short anchor words are ignored",
			url:       "https://example.com/",
			anchor:    "go to it",
			wantLevel: RiskLow,
			wantRules: []string{},
		},
		{
			name:      "homoglyph host",
			url:       "https://раypal.xyz/signin",
			anchor:    "paypal.com",
			wantScore: 8,
			wantLevel: RiskHigh,
			wantRules: []string{"suspicious_tld", "anchor_mismatch", "homoglyph_suspected"},
		},
		{
			name:      "not a url",
			url:       "%zz",
			anchor:    "anything",
			wantLevel: RiskLow,
			wantRules: []string{},
		},
	}

	scorer := NewRiskScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.ScoreLink(tt.url, tt.anchor)
			assert.Equal(t, tt.url, got.URL)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantRules, ruleIDs(got))
		})
	}
}

func TestRiskScorer_ReasonDetails(t *testing.T) {
	got := NewRiskScorer().ScoreLink("https://a.top:8443/?gclid=1&mc_eid=2", "")
	require.Len(t, got.Reasons, 3)
	assert.Equal(t, RiskReason{RuleID: "suspicious_tld", Description: "TLD '.top' is suspicious.", Weight: 2}, got.Reasons[0])
	assert.Equal(t, "Non-standard port 8443.", got.Reasons[1].Description)
	assert.Equal(t, "2 tracking parameters found.", got.Reasons[2].Description)
}

func TestRiskScorer_Score(t *testing.T) {
	links := []extraction.LinkRecord{
		{Page: 1, Type: extraction.LinkTypeURI, Target: "https://example.com", URL: "https://example.com", LinkText: extraction.EmptyLinkText},
		{Page: 1, Type: extraction.LinkTypeDest, Target: "Page 2", DestinationPage: 2, LinkText: "Chapter 2"},
		{Page: 2, Type: extraction.LinkTypeURI, Target: "http://10.0.0.1:8080/x.tk", URL: "http://10.0.0.1:8080/x.tk", LinkText: "Download invoice"},
		{Page: 3, Type: extraction.LinkTypeRemote, Target: "other.pdf", RemoteFile: "other.pdf"},
		{Page: 3, Type: extraction.LinkTypeURI, Target: "https://tracker.example/?utm_campaign=x", LinkText: "tracker.example"},
	}

	report := NewRiskScorer().Score(links)

	assert.Equal(t, RiskSummary{TotalExternal: 3, Scored: 3, HighRisk: 1, LowRisk: 2}, report.Summary)
	require.Len(t, report.Details, 3)

	assert.Equal(t, 1, report.Details[0].Page)
	assert.Empty(t, report.Details[0].AnchorText, "the empty link placeholder is not anchor text")
	assert.Equal(t, RiskLow, report.Details[0].Level)

	assert.Equal(t, 2, report.Details[1].Page)
	assert.Equal(t, []string{"ip_host", "nonstandard_port", "anchor_mismatch"}, ruleIDs(report.Details[1]))
	assert.Equal(t, RiskHigh, report.Details[1].Level)

	assert.Equal(t, "https://tracker.example/?utm_campaign=x", report.Details[2].URL)
	assert.Equal(t, []string{"tracking_params"}, ruleIDs(report.Details[2]))

	empty := NewRiskScorer().Score(nil)
	assert.NotNil(t, empty.Details)
	assert.Zero(t, empty.Summary.TotalExternal)
}
