package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminalearn/lumina-backend/internal/model"
)

const lessonText = "Photosynthesis is the process by which green plants convert sunlight into " +
	"chemical energy. Chlorophyll inside chloroplasts absorbs light and drives photosynthesis " +
	"forward through the light reactions. Carbon dioxide enters the leaf through stomata while " +
	"water travels up from the roots through the xylem. The light reactions split water and " +
	"release oxygen as a byproduct of photosynthesis. The Calvin cycle then uses the stored " +
	"energy carriers to fix carbon dioxide into glucose molecules. Plants store glucose as " +
	"starch for later use during cellular respiration."

func TestExtractiveQuizProducesValidQuestions(t *testing.T) {
	items := extractiveQuiz(lessonText, 4)
	require.NotEmpty(t, items)
	assert.LessOrEqual(t, len(items), 4)

	for _, q := range items {
		assert.NotEmpty(t, q.ID)
		assert.NotEmpty(t, q.Question)
		require.Len(t, q.Options, 4)
		require.GreaterOrEqual(t, q.CorrectAnswer, 0)
		require.Less(t, q.CorrectAnswer, 4)

		unique := make(map[string]struct{})
		for _, o := range q.Options {
			unique[o] = struct{}{}
		}
		assert.Len(t, unique, 4, "options must be distinct")
	}
}

func TestExtractiveQuizDistinctQuestions(t *testing.T) {
	items := extractiveQuiz(lessonText, 10)
	seen := make(map[string]struct{})
	for _, q := range items {
		key := strings.ToLower(q.Question)
		_, dup := seen[key]
		assert.False(t, dup, "duplicate question: %s", q.Question)
		seen[key] = struct{}{}
	}
}

func TestExtractiveQuizShortInput(t *testing.T) {
	// One long sentence and no repeated key terms still gets the
	// main-idea fallback.
	items := extractiveQuiz("zyxwvut qrsponm lkjihgf abcdefg hijklmn opqrstu.", 3)
	for _, q := range items {
		assert.Len(t, q.Options, 4)
	}
}

func TestKeyTermsSkipStopwords(t *testing.T) {
	terms := keyTerms("the the the photosynthesis photosynthesis and with from glucose", 10)
	require.NotEmpty(t, terms)
	assert.Equal(t, "photosynthesis", terms[0])
	for _, term := range terms {
		assert.NotContains(t, []string{"the", "and", "with", "from"}, term)
	}
}

func TestSplitSentencesDropsFragments(t *testing.T) {
	text := "Too short. This sentence is comfortably longer than thirty characters. " +
		"This sentence is comfortably longer than thirty characters. End."
	sentences := splitSentences(text)
	require.Len(t, sentences, 1, "short fragments and duplicates are dropped")
	assert.Contains(t, sentences[0], "comfortably longer")
}

func TestBestSentenceForTermPrefersMentions(t *testing.T) {
	sentences := []string{
		"Mitochondria produce most of the chemical energy cells use every day.",
		"The nucleus stores genetic material and coordinates cellular activity.",
	}
	best := bestSentenceForTerm("mitochondria", sentences)
	assert.Contains(t, best, "Mitochondria")
	assert.Empty(t, bestSentenceForTerm("ribosome", sentences))
}

func TestNormalizeQuestionsFiltersInvalid(t *testing.T) {
	items := []model.Question{
		{Question: "Valid?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 2},
		{Question: "", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 0},
		{Question: "Three options?", Options: []string{"a", "b", "c"}, CorrectAnswer: 0},
		{Question: "Dup options?", Options: []string{"a", "a", "c", "d"}, CorrectAnswer: 0},
		{Question: "Bad index?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 4},
	}
	out := normalizeQuestions(items)
	require.Len(t, out, 1)
	assert.Equal(t, "Valid?", out[0].Question)
	assert.NotEmpty(t, out[0].ID, "missing IDs are filled in")
}

func TestRoundTenth(t *testing.T) {
	assert.Equal(t, 66.7, roundTenth(200.0/3.0))
	assert.Equal(t, 100.0, roundTenth(100))
	assert.Equal(t, 0.0, roundTenth(0))
}

func TestQuizTitleFromText(t *testing.T) {
	title := quizTitleFromText("Photosynthesis is the process by which plants make food")
	assert.Equal(t, "Quiz: Photosynthesis is the process by which", title)
}

func TestShuffleOptionsKeepsCorrect(t *testing.T) {
	for i := 0; i < 20; i++ {
		options := shuffleOptions("right", []string{"w1", "w2", "w3"})
		require.Len(t, options, 4)
		idx := indexOf(options, "right")
		assert.Equal(t, "right", options[idx])
	}
}
