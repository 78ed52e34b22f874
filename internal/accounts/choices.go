package accounts

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"

	"github.com/bazuu/investorconnect/internal/db"
)

type choices map[string]struct{}

func choiceSet(values ...string) choices {
	c := make(choices, len(values))
	for _, v := range values {
		c[v] = struct{}{}
	}
	return c
}

// valid accepts the empty value as "not set".
func (c choices) valid(v string) bool {
	if v == "" {
		return true
	}
	_, ok := c[v]
	return ok
}

var (
	industries = choiceSet("technology", "healthcare", "finance", "retail", "manufacturing",
		"education", "real_estate", "agriculture", "entertainment", "other")
	investmentRanges = choiceSet("under_10k", "10k_50k", "50k_100k", "100k_500k", "500k_1m", "over_1m")
	experienceLevels = choiceSet("beginner", "intermediate", "experienced", "expert")
	businessStages   = choiceSet("idea", "concept", "mvp", "early", "growth", "expansion", "mature", "pivot")
	investmentFocus  = choiceSet("early_stage", "growth_stage", "tech_focused", "social_impact",
		"local_business", "diversified")
	jobLevels       = choiceSet("entry", "junior", "mid", "senior", "lead", "executive")
	availabilities  = choiceSet("immediate", "2_weeks", "1_month", "flexible")
	employmentTypes = choiceSet("full_time", "part_time", "contract", "freelance", "internship", "any")
	visibilities    = choiceSet(string(db.VisibilityPublic), string(db.VisibilityMembers), string(db.VisibilityPrivate))
	signupTypes     = choiceSet(string(db.UserTypeRegular), string(db.UserTypeInvestor), string(db.UserTypeJobSeeker))
)

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

func validUsername(s string) bool {
	return s != "" && len(s) <= 150 && usernameRe.MatchString(s)
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// validURL accepts empty values and absolute http(s) URLs.
func validURL(s string) bool {
	if s == "" {
		return true
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func extension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}
