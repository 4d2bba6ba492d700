package respond

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
)

// Response source tags, so callers can tell canned, FAQ and generated
// answers apart for analytics.
const (
	SourceFAQ       = "faq"
	SourceGenerated = "generated"
	SourceFallback  = "fallback"
	SourceError     = "error"
)

// ErrGeneration tags failures of the generative text service. The pipeline
// recovers from them locally; they never propagate to the caller.
var ErrGeneration = errors.New("text generation failed")

// DefaultIntent labels messages no FAQ keyword matches.
const DefaultIntent = "General_Chat"

// Response is the uniform envelope every stage's output is normalized into.
type Response struct {
	Text        string    `json:"text"`
	Intent      string    `json:"intent,omitempty"`
	Confidence  float64   `json:"confidence"`
	Suggestions []string  `json:"suggestions"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
}

// Turn is one prior history entry handed to the generative stage.
type Turn struct {
	Role    string
	Content string
}

// TextGenerator is the outbound contract to the generative text service.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

const (
	greetingText = "Bonjour ! Je suis votre conseiller carrière spécialisé dans l'aviation. Comment puis-je vous aider aujourd'hui pour votre projet de devenir hôtesse de l'air ou steward ?"
	thanksText   = "Je vous en prie ! N'hésitez pas si vous avez d'autres questions sur votre carrière dans l'aviation."
	emptyText    = "Bonjour ! Comment puis-je vous aider dans votre projet de carrière dans l'aviation ?"
	errorText    = "Je rencontre des difficultés techniques pour générer une réponse. Veuillez réessayer plus tard."

	// careerPrompt frames every generative request on aviation careers.
	careerPrompt = `Tu es un conseiller de carrière expert dans l'aviation civile, spécialisé dans les métiers de Personnel Navigant Commercial (PNC) - hôtesses de l'air et stewards.

Domaines d'expertise :
- Compétences requises pour devenir PNC
- Conseils CV et lettres de motivation pour l'aviation
- Préparation aux entretiens avec les compagnies aériennes
- Formations et certifications (SMURF, sécurité, premiers secours)
- Marché de l'emploi dans l'aviation civile
- Évolution de carrière (chef de cabine, instructeur, etc.)

Ta mission : aider les candidats avec des conseils pratiques, personnalisés et précis sur les métiers du PNC.

Si on te pose des questions hors de ton domaine d'expertise, réponds de manière utile tout en recentrant si possible sur l'aviation, ou explique poliment que tu es spécialisé dans ce domaine.`
)

// promptHistoryTurns bounds how much history the generative prompt carries.
const promptHistoryTurns = 6

var (
	greetingTokens = []string{"bonjour", "salut", "hello", "hi", "coucou", "hey"}
	thanksTokens   = []string{"merci", "thank you", "thanks", "merci beaucoup"}

	fallbackTexts = []string{
		"Je n'ai pas pu trouver de réponse appropriée dans ma base de connaissances. Pouvez-vous reformuler votre question ou la poser différemment ?",
		"Je ne suis pas sûr de bien comprendre votre demande. Pourriez-vous la reformuler ?",
		"Je n'ai pas d'information précise sur ce sujet. Avez-vous une autre question ?",
	}
	fallbackSuggestions = []string{"Voir l'aide", "Poser une autre question"}
	errorSuggestions    = []string{"Réessayer", "Contacter le support"}
)

// Pipeline produces a reply for a user message through a strict priority
// chain: greeting/thanks shortcuts, FAQ lookup, generative fallback, canned
// fallback. It never returns an error: the worst case is a templated reply.
type Pipeline struct {
	faq       *FAQ
	generator TextGenerator
	logger    *slog.Logger
}

type PipelineConfig struct {
	FAQ       *FAQ
	Generator TextGenerator // nil disables the generative stage
	Logger    *slog.Logger
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	faq := cfg.FAQ
	if faq == nil {
		faq = NewFAQ(nil)
	}
	return &Pipeline{
		faq:       faq,
		generator: cfg.Generator,
		logger:    cfg.Logger,
	}
}

// DetectIntent resolves the intent label recorded on both turns of an
// exchange: greeting and thanks shortcuts get their own labels, otherwise a
// keyword scan over the FAQ, else DefaultIntent.
func (p *Pipeline) DetectIntent(message string) string {
	if isGreeting(message) {
		return "Greeting"
	}
	if isThanks(message) {
		return "Thanks"
	}
	if intent, ok := p.faq.DetectIntent(message); ok {
		return intent
	}
	return DefaultIntent
}

// Generate runs the stage chain and returns a normalized response envelope.
func (p *Pipeline) Generate(ctx context.Context, userMessage, intent string, history []Turn) *Response {
	// Stage 1: heuristic shortcuts bypass everything, including the
	// generative service.
	if strings.TrimSpace(userMessage) == "" {
		return p.normalize(&Response{Text: emptyText, Confidence: 1.0, Source: SourceFAQ}, intent)
	}
	if isGreeting(userMessage) {
		return p.normalize(&Response{Text: greetingText, Confidence: 1.0, Source: SourceFAQ}, intent)
	}
	if isThanks(userMessage) {
		return p.normalize(&Response{Text: thanksText, Confidence: 1.0, Source: SourceFAQ}, intent)
	}

	// Stage 2: static FAQ table.
	if matched, entry, ok := p.faq.Find(intent, userMessage); ok {
		p.info("faq match", slog.String("intent", intent), slog.String("matched", matched))
		return p.normalize(&Response{
			Text:        entry.Text,
			Confidence:  0.9,
			Suggestions: entry.Suggestions,
			Source:      SourceFAQ,
		}, intent)
	}

	// A caller that already gave up gets the error-tagged reply; the
	// generative stage would fail on the dead context anyway.
	if ctx.Err() != nil {
		return p.normalize(&Response{
			Text:        errorText,
			Suggestions: errorSuggestions,
			Source:      SourceError,
		}, intent)
	}

	// Stage 3: generative fallback.
	if p.generator != nil {
		text, err := p.generator.GenerateText(ctx, p.buildPrompt(userMessage, history))
		if err != nil {
			p.warnErr("generation failed", fmt.Errorf("%w: %v", ErrGeneration, err))
		} else if strings.TrimSpace(text) != "" {
			return p.normalize(&Response{
				Text:       cleanGenerated(text),
				Confidence: 0.9,
				Source:     SourceGenerated,
			}, intent)
		}
	}

	// Stage 4: canned fallback.
	return p.normalize(&Response{
		Text:        fallbackTexts[rand.IntN(len(fallbackTexts))],
		Confidence:  0.3,
		Suggestions: fallbackSuggestions,
		Source:      SourceFallback,
	}, intent)
}

// buildPrompt assembles the domain preamble, the most recent history turns
// and the new message.
func (p *Pipeline) buildPrompt(userMessage string, history []Turn) string {
	var b strings.Builder
	b.WriteString(careerPrompt)
	b.WriteString("\n\n")

	start := 0
	if len(history) > promptHistoryTurns {
		start = len(history) - promptHistoryTurns
	}
	for _, turn := range history[start:] {
		switch turn.Role {
		case "user":
			b.WriteString("Utilisateur: ")
		case "assistant":
			b.WriteString("Assistant: ")
		default:
			continue
		}
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}

	b.WriteString("Utilisateur: ")
	b.WriteString(userMessage)
	b.WriteString("\nAssistant:")
	return b.String()
}

// normalize defaults missing fields and stamps the timestamp so every reply
// leaves in the same envelope.
func (p *Pipeline) normalize(resp *Response, intent string) *Response {
	if resp.Text == "" {
		resp.Text = fallbackTexts[rand.IntN(len(fallbackTexts))]
		resp.Source = SourceFallback
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []string{}
	}
	if resp.Source == "" {
		resp.Source = SourceGenerated
	}
	resp.Intent = intent
	resp.Timestamp = time.Now().UTC()
	return resp
}

// cleanGenerated strips role prefixes the model sometimes echoes back.
func cleanGenerated(text string) string {
	text = strings.TrimSpace(text)
	for _, prefix := range []string{"Assistant:", "AI:", "Bot:"} {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
			break
		}
	}
	return text
}

func isGreeting(text string) bool {
	return containsAny(text, greetingTokens)
}

func isThanks(text string) bool {
	return containsAny(text, thanksTokens)
}

func containsAny(text string, tokens []string) bool {
	lowered := strings.ToLower(text)
	for _, tok := range tokens {
		if strings.Contains(lowered, tok) {
			return true
		}
	}
	return false
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warnErr(msg string, err error) {
	if p.logger != nil {
		p.logger.Warn(msg, slog.String("error", err.Error()))
	}
}
