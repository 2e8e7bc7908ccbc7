package models

type ExerciseType string

const (
	TypeMultipleChoice ExerciseType = "multiple_choice"
	TypeFillBlank      ExerciseType = "fill_blank"
	TypeWordOrder      ExerciseType = "word_order"
	TypeTranslate      ExerciseType = "translate"
	TypeMatch          ExerciseType = "match"
)

type Option struct {
	ID   string `bson:"id" json:"id"`
	Text string `bson:"text" json:"text"`
}

// Blank is one gap in a fill-blank exercise. Alternates are accepted in
// addition to the primary answer.
type Blank struct {
	Answer     string   `bson:"answer" json:"answer"`
	Alternates []string `bson:"alternates,omitempty" json:"alternates,omitempty"`
}

type MatchPair struct {
	Left  string `bson:"left" json:"left"`
	Right string `bson:"right" json:"right"`
}

// Exercise is read-only content owned by the content repository. The Type tag
// decides which of the answer-key fields below are meaningful; the evaluator
// dispatches on it and never probes the others.
type Exercise struct {
	ID     string       `bson:"_id,omitempty" json:"id"`
	UnitID string       `bson:"unit_id" json:"unit_id"`
	Type   ExerciseType `bson:"type" json:"type"`
	Prompt string       `bson:"prompt" json:"prompt"`

	// multiple_choice
	Options       []Option `bson:"options,omitempty" json:"options,omitempty"`
	CorrectOption string   `bson:"correct_option,omitempty" json:"correct_option,omitempty"`

	// fill_blank
	Blanks []Blank `bson:"blanks,omitempty" json:"blanks,omitempty"`

	// word_order: the canonical token sequence
	Tokens []string `bson:"tokens,omitempty" json:"tokens,omitempty"`

	// translate
	Reference string `bson:"reference,omitempty" json:"reference,omitempty"`

	// match
	Pairs []MatchPair `bson:"pairs,omitempty" json:"pairs,omitempty"`

	// XP overrides the configured per-exercise amount when non-zero.
	XP int `bson:"xp,omitempty" json:"xp,omitempty"`
}

// Submission is the learner's answer for one exercise. Which field carries
// the payload depends on the exercise type: Value for multiple-choice and
// translate, Values for fill-blank and word-order (word-order also accepts a
// single space-separated Value), Pairs for match.
type Submission struct {
	Value  string            `bson:"value,omitempty" json:"value,omitempty"`
	Values []string          `bson:"values,omitempty" json:"values,omitempty"`
	Pairs  map[string]string `bson:"pairs,omitempty" json:"pairs,omitempty"`
}
