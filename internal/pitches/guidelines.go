package pitches

// Section is one block of the pitch guidelines.
type Section struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// Guidelines is the guidance shown to entrepreneurs before they pitch.
type Guidelines struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

var guidelines = Guidelines{
	Title:    "Pitch Guidelines",
	Sections: []Section{
		{
			Title: "Before you submit",
			Items: []string{
				"Verify your account and complete your profile.",
				"Pick the category that best describes your business.",
				"Keep the title short and specific.",
			},
		},
		{
			Title: "What to include",
			Items: []string{
				"The problem you solve and who has it.",
				"How your product or service works.",
				"Your market, competition and traction so far.",
				"How much funding you need and what it will be used for.",
				"A realistic timeline for the next milestones.",
			},
		},
		{
			Title: "Attachments",
			Items: []string{
				"Business plans, financials, presentations and prototype images are welcome.",
				"Accepted formats: PDF, Word, PowerPoint, Excel, JPG and PNG.",
				"Each file may be up to 10MB.",
				"Files are only visible to you, administrators and investors who express interest.",
			},
		},
		{
			Title: "Review",
			Items: []string{
				"Every pitch is reviewed by an administrator before investors can see it.",
				"You will be notified when your pitch is approved or rejected.",
				"Interested investors can reach you through chat.",
			},
		},
	},
}

// Guidelines returns the static pitch guidance.
func (s *Service) Guidelines() Guidelines { return guidelines }
