package models

import "time"

// Sentence is a saved original/translated text pair owned by a user.
type Sentence struct {
	ID              int64     `bson:"_id" db:"id"`
	UserID          int64     `bson:"userId" db:"user_id"`
	Original        string    `bson:"original" db:"original"`
	OriginalLang    string    `bson:"originalLang" db:"original_lang"`
	Translation     string    `bson:"translation" db:"translation"`
	TranslationLang string    `bson:"translationLang" db:"translation_lang"`
	Explanation     *string   `bson:"explanation,omitempty" db:"explanation"`
	CreatedAt       time.Time `bson:"createdAt" db:"created_at"`

	// Words is only populated by lookups that load the sentence with its words.
	Words []Word `bson:"-" db:"-"`
}

// Word is a per-token explanation linked to exactly one Sentence.
// Words of a sentence are written once and never mutated afterwards.
type Word struct {
	ID             int64  `bson:"_id" db:"id"`
	SentenceID     int64  `bson:"sentenceId" db:"sentence_id"`
	Position       int    `bson:"position" db:"position"`
	OriginalWord   string `bson:"originalWord" db:"original_word"`
	TranslatedWord string `bson:"translatedWord" db:"translated_word"`
	Explanation    string `bson:"explanation" db:"explanation"`
	Romanization   string `bson:"romanization" db:"romanization"`
}
