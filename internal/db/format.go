package db

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FullName returns "first last", falling back to username.
func (p *Profile) FullName(username string) string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return username
	}
	return name
}

func (p *Profile) SkillsList() []string { return splitList(p.Skills, ",") }

func (p *PitchFile) SizeDisplay() string {
	size := float64(p.FileSize)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}

var fileIcons = map[string]string{
	"pdf":  "fas fa-file-pdf text-red-500",
	"doc":  "fas fa-file-word text-blue-500",
	"docx": "fas fa-file-word text-blue-500",
	"jpg":  "fas fa-file-image text-green-500",
	"jpeg": "fas fa-file-image text-green-500",
	"png":  "fas fa-file-image text-green-500",
	"ppt":  "fas fa-file-powerpoint text-orange-500",
	"pptx": "fas fa-file-powerpoint text-orange-500",
	"xls":  "fas fa-file-excel text-green-600",
	"xlsx": "fas fa-file-excel text-green-600",
}

// Icon returns the icon class for the file extension.
func (p *PitchFile) Icon() string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(p.OriginalFilename), "."))
	if icon, ok := fileIcons[ext]; ok {
		return icon
	}
	return "fas fa-file text-gray-500"
}

func (p *InvestorPost) TagsList() []string { return splitList(p.Tags, ",") }

func (j *JobPosting) SkillsList() []string { return splitList(j.SkillsRequired, ",") }

// SalaryRange formats the advertised salary band.
func (j *JobPosting) SalaryRange() string {
	cur := j.SalaryCurrency
	if cur == "" {
		cur = "KES"
	}
	hasMin := j.SalaryMin != nil && !j.SalaryMin.IsZero()
	hasMax := j.SalaryMax != nil && !j.SalaryMax.IsZero()
	switch {
	case hasMin && hasMax:
		return fmt.Sprintf("%s %s - %s", cur, GroupThousands(*j.SalaryMin), GroupThousands(*j.SalaryMax))
	case hasMin:
		return fmt.Sprintf("%s %s+", cur, GroupThousands(*j.SalaryMin))
	case hasMax:
		return fmt.Sprintf("Up to %s %s", cur, GroupThousands(*j.SalaryMax))
	}
	return "Salary not specified"
}

// DeadlinePassed reports whether applications are closed at now.
func (j *JobPosting) DeadlinePassed(now time.Time) bool {
	return j.ApplicationDeadline != nil && now.After(*j.ApplicationDeadline)
}

func (a *JobApplication) PortfolioLinksList() []string { return splitList(a.PortfolioLinks, "\n") }

// GroupThousands renders d rounded to a whole number with comma separators.
func GroupThousands(d decimal.Decimal) string {
	s := d.RoundBank(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
