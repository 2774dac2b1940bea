package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/luminalearn/lumina-backend/internal/llm"
	"github.com/luminalearn/lumina-backend/internal/model"
	"github.com/luminalearn/lumina-backend/internal/repository"
)

// Quiz errors.
var (
	ErrEmptySource       = errors.New("no text found to generate quiz from")
	ErrGenerationFailed  = errors.New("quiz generation failed")
	ErrIncompleteAnswers = errors.New("missing answers or questions data")
)

const (
	defaultNumQuestions = 5
	maxSourceChars      = 6000
)

// QuizService generates and scores quizzes.
type QuizService struct {
	llm       *llm.Client
	scoreRepo *repository.QuizScoreRepository
}

// NewQuizService creates a new QuizService.
func NewQuizService(client *llm.Client, scoreRepo *repository.QuizScoreRepository) *QuizService {
	return &QuizService{llm: client, scoreRepo: scoreRepo}
}

// GenerateFromText builds a quiz from raw study text. The LLM path is tried
// first; on failure or when no API key is configured it falls back to the
// extractive generator so the endpoint always returns usable items.
func (s *QuizService) GenerateFromText(ctx context.Context, text string, numQuestions int) (*model.GeneratedQuiz, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptySource
	}
	if numQuestions <= 0 {
		numQuestions = defaultNumQuestions
	}

	if s.llm.Enabled() {
		quiz, err := s.generateWithLLM(ctx, text, numQuestions)
		if err == nil {
			return quiz, nil
		}
		log.Warn().Err(err).Msg("llm quiz generation failed, using extractive fallback")
	}

	items := extractiveQuiz(text, numQuestions)
	if len(items) == 0 {
		return nil, ErrGenerationFailed
	}
	return &model.GeneratedQuiz{Title: quizTitleFromText(text), Items: items}, nil
}

// GenerateFromPDF extracts plain text from an uploaded PDF and delegates to
// GenerateFromText.
func (s *QuizService) GenerateFromPDF(ctx context.Context, file io.ReaderAt, size int64, numQuestions int) (*model.GeneratedQuiz, error) {
	text, err := extractPDFText(file, size)
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return s.GenerateFromText(ctx, text, numQuestions)
}

// Submit scores an answer sheet against its questions, persists the result,
// and returns per-question outcomes. An unanswered question scores as wrong
// with a nil user answer.
func (s *QuizService) Submit(ctx context.Context, userID *int, req *model.SubmitQuizRequest) (*model.SubmitQuizResponse, error) {
	if len(req.Questions) == 0 || req.Answers == nil {
		return nil, ErrIncompleteAnswers
	}

	results := make([]model.QuestionResult, 0, len(req.Questions))
	correct := 0
	for _, q := range req.Questions {
		topic := strings.ToLower(strings.TrimSpace(q.Topic))
		if topic == "" {
			topic = "general"
		}

		var userAnswer *int
		if a, ok := req.Answers[q.ID]; ok {
			v := a
			userAnswer = &v
		}
		isCorrect := userAnswer != nil && *userAnswer == q.CorrectAnswer
		if isCorrect {
			correct++
		}

		results = append(results, model.QuestionResult{
			QuestionID:    q.ID,
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    userAnswer,
			IsCorrect:     isCorrect,
			Topic:         topic,
		})
	}

	total := len(req.Questions)
	percentage := float64(correct) / float64(total) * 100

	quizTitle := req.QuizTitle
	if quizTitle == "" {
		quizTitle = "Untitled Quiz"
	}

	answersData, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}

	score := &model.QuizScore{
		UserID:          userID,
		QuizTitle:       quizTitle,
		TotalQuestions:  total,
		CorrectAnswers:  correct,
		ScorePercentage: roundTenth(percentage),
		AnswersData:     answersData,
	}
	// Anonymous submissions are keyed by session instead of account.
	if userID == nil && req.SessionID != "" {
		score.SessionID = &req.SessionID
	}
	if req.SecurityData != nil {
		score.TabSwitchCount = req.SecurityData.TabSwitchCount
		score.TimeSpentMs = req.SecurityData.TimeSpent
	}

	if err := s.scoreRepo.Create(ctx, score); err != nil {
		// Scoring still succeeds for the client; persistence failure is logged.
		log.Error().Err(err).Msg("save quiz score failed")
	}

	return &model.SubmitQuizResponse{
		Score: model.Score{
			Correct:    correct,
			Total:      total,
			Percentage: roundTenth(percentage),
		},
		Results:     results,
		SessionID:   req.SessionID,
		QuizScoreID: score.ID,
	}, nil
}

// History returns a user's scored submissions with pagination.
func (s *QuizService) History(ctx context.Context, userID, page, perPage int) ([]model.QuizScore, int64, error) {
	return s.scoreRepo.ListByUser(ctx, userID, page, perPage)
}

func (s *QuizService) generateWithLLM(ctx context.Context, text string, numQuestions int) (*model.GeneratedQuiz, error) {
	if len(text) > maxSourceChars {
		text = text[:maxSourceChars]
	}

	system := fmt.Sprintf(`You are an expert assessment designer creating diverse, content-specific multiple-choice questions.
Output strict JSON only: {"title":"...","items":[{"id":"uuid","question":"...","options":["...","...","...","..."],"correctAnswer":0,"topic":"..."}]}
Rules:
- Exactly 4 options per question, exactly 1 correct answer.
- Each question tests a different aspect of the content: definitions, cause-effect, comparison, application, analysis.
- Reference specific names, numbers, and terminology from the source text.
- Distractors must be plausible but factually incorrect.
- Generate exactly %d items.`, numQuestions)

	raw, err := s.llm.CompleteJSON(ctx, system, text)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Title string           `json:"title"`
		Items []model.Question `json:"items"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode quiz json: %w", err)
	}

	items := normalizeQuestions(parsed.Items)
	if len(items) == 0 {
		return nil, fmt.Errorf("no valid items after normalization")
	}
	title := parsed.Title
	if title == "" {
		title = quizTitleFromText(text)
	}
	return &model.GeneratedQuiz{Title: title, Items: items}, nil
}

// normalizeQuestions drops malformed items: wrong option count, duplicate
// options, or out-of-range answer index. Missing IDs are filled in.
func normalizeQuestions(items []model.Question) []model.Question {
	out := make([]model.Question, 0, len(items))
	for _, it := range items {
		it.Question = strings.TrimSpace(it.Question)
		if it.Question == "" || len(it.Options) != 4 {
			continue
		}
		unique := make(map[string]struct{}, 4)
		valid := true
		for i, opt := range it.Options {
			opt = strings.TrimSpace(opt)
			if opt == "" {
				valid = false
				break
			}
			it.Options[i] = opt
			unique[opt] = struct{}{}
		}
		if !valid || len(unique) != 4 {
			continue
		}
		if it.CorrectAnswer < 0 || it.CorrectAnswer > 3 {
			continue
		}
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		out = append(out, it)
	}
	return out
}

func roundTenth(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func quizTitleFromText(text string) string {
	words := strings.Fields(text)
	if len(words) > 6 {
		words = words[:6]
	}
	title := strings.Join(words, " ")
	if len(title) > 60 {
		title = title[:60]
	}
	return "Quiz: " + title
}

// extractPDFText pulls the plain text out of every page of a PDF.
func extractPDFText(file io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(file, size)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ---- Extractive fallback generator ----
//
// When no LLM is reachable, quizzes are built from the text itself: the most
// frequent non-stopword terms become topics, the best sentence mentioning
// each term becomes the correct option, and other high-frequency terms seed
// the distractors.

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "that": {}, "with": {}, "from": {},
	"this": {}, "have": {}, "will": {}, "were": {}, "been": {}, "they": {},
	"them": {}, "then": {}, "than": {}, "into": {}, "over": {}, "under": {},
	"between": {}, "among": {}, "your": {}, "you": {}, "our": {}, "their": {},
	"there": {}, "about": {}, "also": {}, "such": {}, "most": {}, "more": {},
	"very": {}, "just": {}, "some": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "who": {}, "whom": {}, "whose": {}, "because": {},
	"although": {}, "while": {}, "before": {}, "after": {}, "since": {},
	"until": {}, "against": {}, "within": {}, "without": {}, "across": {},
	"through": {}, "during": {}, "above": {}, "below": {}, "each": {},
	"can": {}, "could": {}, "would": {}, "should": {}, "may": {}, "might": {},
	"must": {}, "are": {}, "was": {}, "being": {},
}

var wordRe = regexp.MustCompile(`[A-Za-z][A-Za-z\-]{2,}`)
var sentenceRe = regexp.MustCompile(`(?:[.!?])\s+`)
var spaceRe = regexp.MustCompile(`\s+`)

func extractiveQuiz(text string, numQuestions int) []model.Question {
	cleaned := spaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	sentences := splitSentences(cleaned)
	terms := keyTerms(cleaned, 20)

	seen := make(map[string]struct{})
	var items []model.Question
	for _, term := range terms {
		if len(items) >= numQuestions {
			break
		}
		ctx := bestSentenceForTerm(term, sentences)
		q := makeMCQ(term, ctx, terms)
		key := strings.ToLower(q.Question)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, q)
	}

	// Last resort: a generic main-idea question per leading sentence.
	if len(items) == 0 {
		for i, s := range sentences {
			if i >= numQuestions {
				break
			}
			correct := truncate(s, 120)
			options := shuffleOptions(correct, []string{
				"Paraphrase unrelated to topic",
				"Irrelevant detail",
				"Contradictory statement",
			})
			items = append(items, model.Question{
				ID:            uuid.New().String(),
				Question:      "Which option best captures a main idea from the text?",
				Options:       options,
				CorrectAnswer: indexOf(options, correct),
				Topic:         "general",
			})
		}
	}
	return items
}

func tokenizeWords(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

func keyTerms(text string, topK int) []string {
	counts := make(map[string]int)
	for _, w := range tokenizeWords(text) {
		if _, stop := stopwords[w]; stop {
			continue
		}
		counts[w]++
	}
	terms := make([]string, 0, len(counts))
	for w := range counts {
		terms = append(terms, w)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > topK {
		terms = terms[:topK]
	}
	return terms
}

// splitSentences breaks text on sentence punctuation, dropping short
// fragments and duplicates. Capped at 200 sentences.
func splitSentences(text string) []string {
	raw := sentenceRe.Split(strings.TrimSpace(text), -1)
	seen := make(map[string]struct{})
	var sentences []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if len(s) < 30 {
			continue
		}
		key := spaceRe.ReplaceAllString(strings.ToLower(s), " ")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		sentences = append(sentences, s)
		if len(sentences) >= 200 {
			break
		}
	}
	return sentences
}

// bestSentenceForTerm picks the sentence mentioning the term most often,
// with a mild penalty for lengths far from 120 characters.
func bestSentenceForTerm(term string, sentences []string) string {
	best := ""
	bestScore := 0.0
	lower := strings.ToLower(term)
	for _, s := range sentences {
		count := strings.Count(strings.ToLower(s), lower)
		if count == 0 {
			continue
		}
		penalty := float64(abs(len(s)-120)) / 120.0
		score := float64(count) - 0.3*penalty
		if best == "" || score > bestScore {
			best = s
			bestScore = score
		}
	}
	return best
}

func makeMCQ(term, contextSentence string, poolTerms []string) model.Question {
	correct := ""
	if contextSentence != "" {
		correct = truncate(strings.TrimSpace(contextSentence), 120)
	} else {
		correct = fmt.Sprintf("%s refers to a key concept discussed in the material.", titleCase(term))
	}

	var distractors []string
	for _, t := range poolTerms {
		if t == term {
			continue
		}
		distractors = append(distractors, fmt.Sprintf("Focuses primarily on %s and unrelated details", t))
		if len(distractors) >= 3 {
			break
		}
	}
	fillers := []string{
		"Presents background information without defining the idea",
		"Describes an example case but not the concept itself",
		"Highlights a tangential point rather than the main concept",
	}
	for len(distractors) < 3 {
		distractors = append(distractors, fillers[len(distractors)%len(fillers)])
	}

	options := shuffleOptions(correct, distractors[:3])
	return model.Question{
		ID:            uuid.New().String(),
		Question:      fmt.Sprintf("Which statement best describes %s?", term),
		Options:       options,
		CorrectAnswer: indexOf(options, correct),
		Topic:         term,
	}
}

func shuffleOptions(correct string, distractors []string) []string {
	options := append([]string{correct}, distractors...)
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

func indexOf(options []string, target string) int {
	for i, o := range options {
		if o == target {
			return i
		}
	}
	return 0
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
