package db

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type FormatSuite struct {
	suite.Suite
}

func TestFormatSuite(t *testing.T) {
	suite.Run(t, new(FormatSuite))
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (s *FormatSuite) TestFullNameFallsBackToUsername() {
	require.Equal(s.T(), "jdoe", (&Profile{}).FullName("jdoe"))
	require.Equal(s.T(), "Jane", (&Profile{FirstName: "Jane"}).FullName("jdoe"))
	require.Equal(s.T(), "Jane Doe", (&Profile{FirstName: "Jane", LastName: "Doe"}).FullName("jdoe"))
}

func (s *FormatSuite) TestSizeDisplay() {
	require.Equal(s.T(), "512.0 B", (&PitchFile{FileSize: 512}).SizeDisplay())
	require.Equal(s.T(), "1.5 KB", (&PitchFile{FileSize: 1536}).SizeDisplay())
	require.Equal(s.T(), "2.0 MB", (&PitchFile{FileSize: 2 * 1024 * 1024}).SizeDisplay())
	require.Equal(s.T(), "1.0 TB", (&PitchFile{FileSize: 1 << 40}).SizeDisplay())
}

func (s *FormatSuite) TestIcon() {
	require.Equal(s.T(), "fas fa-file-pdf text-red-500", (&PitchFile{OriginalFilename: "plan.PDF"}).Icon())
	require.Equal(s.T(), "fas fa-file text-gray-500", (&PitchFile{OriginalFilename: "notes.txt"}).Icon())
	require.Equal(s.T(), "fas fa-file text-gray-500", (&PitchFile{OriginalFilename: "README"}).Icon())
}

func (s *FormatSuite) TestSalaryRange() {
	require.Equal(s.T(), "KES 50,000 - 120,000", (&JobPosting{SalaryMin: decPtr("50000"), SalaryMax: decPtr("120000")}).SalaryRange())
	require.Equal(s.T(), "USD 1,000+", (&JobPosting{SalaryCurrency: "USD", SalaryMin: decPtr("1000")}).SalaryRange())
	require.Equal(s.T(), "Up to KES 900", (&JobPosting{SalaryMax: decPtr("900")}).SalaryRange())
	require.Equal(s.T(), "Salary not specified", (&JobPosting{}).SalaryRange())
}

func (s *FormatSuite) TestGroupThousands() {
	require.Equal(s.T(), "0", GroupThousands(decimal.Zero))
	require.Equal(s.T(), "999", GroupThousands(decimal.RequireFromString("999")))
	require.Equal(s.T(), "1,234,568", GroupThousands(decimal.RequireFromString("1234567.5")))
	require.Equal(s.T(), "-12,000", GroupThousands(decimal.RequireFromString("-12000")))
}

func (s *FormatSuite) TestSplitLists() {
	require.Equal(s.T(), []string{"go", "sql"}, (&JobPosting{SkillsRequired: " go, ,sql "}).SkillsList())
	require.Nil(s.T(), (&InvestorPost{}).TagsList())
	require.Equal(s.T(), []string{"fintech"}, (&InvestorPost{Tags: "fintech"}).TagsList())
}

func (s *FormatSuite) TestDeadlinePassed() {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	require.True(s.T(), (&JobPosting{ApplicationDeadline: &past}).DeadlinePassed(now))
	require.False(s.T(), (&JobPosting{}).DeadlinePassed(now))
}
