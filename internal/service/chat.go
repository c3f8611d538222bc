package service

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/domain"
)

// User-facing replies for the pipeline's terminal failure paths.
const (
	msgOutOfScope = "Maaf, itu di luar fitur saya. Saya CarePal dapat membantu dengan pertanyaan seputar kesehatan kehamilan dan umum. Silakan coba pertanyaan lain yang berkaitan dengan kesehatan Anda."
	msgPipeline   = "Maaf, terjadi kesalahan dalam memproses pertanyaan Anda. Silakan coba lagi dalam beberapa saat atau hubungi administrator jika masalah berlanjut."
)

// ChatResult is the outcome of one processed message.
type ChatResult struct {
	Response       string                `json:"response"`
	OutOfScope     bool                  `json:"out_of_scope"`
	Domain         domain.QueryDomain    `json:"domain,omitempty"`
	Classification domain.Classification `json:"classification"`
	MaxSimilarity  float64               `json:"max_similarity"`
}

// ChatService runs the full answer pipeline: scope gate, domain split, intent
// classification, context retrieval for the top predictions, then
// composition. It never returns an error; failures become apologetic replies.
type ChatService struct {
	gate      *SimilarityGate
	domains   *DomainClassifier
	intents   *IntentClassifier
	retriever *Retriever
	composer  *Composer
	logger    *zap.Logger
}

func NewChatService(gate *SimilarityGate, domains *DomainClassifier, intents *IntentClassifier, retriever *Retriever, composer *Composer, logger *zap.Logger) *ChatService {
	return &ChatService{
		gate:      gate,
		domains:   domains,
		intents:   intents,
		retriever: retriever,
		composer:  composer,
		logger:    logger,
	}
}

// ProcessMessage answers one user message. A panic anywhere in the pipeline
// is recovered into the generic apology so one bad row never kills a session.
func (s *ChatService) ProcessMessage(ctx context.Context, input string, customer *domain.Customer) (result ChatResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("message pipeline panicked", zap.Any("panic", r))
			result = ChatResult{Response: msgPipeline}
		}
	}()

	input = strings.TrimSpace(input)

	similarity := s.gate.Check(ctx, input)
	if !similarity.IsValid {
		s.logger.Info("message out of scope",
			zap.String("customer_id", customer.CustomerID),
			zap.Float64("max_similarity", similarity.MaxSimilarity))
		return ChatResult{
			Response:      msgOutOfScope,
			OutOfScope:    true,
			MaxSimilarity: similarity.MaxSimilarity,
		}
	}

	d := s.domains.Classify(ctx, input)
	classification := s.intents.Classify(ctx, input, d)

	// Retrieve for the primary intent, then for each alternate prediction so
	// the composer can weigh both when the classifier is unsure.
	contexts := []*domain.ContextBundle{
		s.retriever.Context(classification.Intent, customer.CustomerID),
	}
	for _, pred := range classification.Predictions[1:] {
		contexts = append(contexts, s.retriever.Context(pred.Intent, customer.CustomerID))
	}

	reply := s.composer.Compose(ctx, ComposeInput{
		UserInput:      input,
		Classification: classification,
		Contexts:       contexts,
		Customer:       customer,
	})

	s.logger.Info("message answered",
		zap.String("customer_id", customer.CustomerID),
		zap.String("domain", string(d)),
		zap.String("intent", classification.Intent),
		zap.String("method", string(classification.Method)),
		zap.Float64("confidence", classification.Confidence))

	return ChatResult{
		Response:       CleanMarkdown(reply),
		Domain:         d,
		Classification: classification,
		MaxSimilarity:  similarity.MaxSimilarity,
	}
}

var (
	boldPattern      = regexp.MustCompile(`\*\*(.*?)\*\*`)
	boldAltPattern   = regexp.MustCompile(`__(.*?)__`)
	italicPattern    = regexp.MustCompile(`\*(.*?)\*`)
	italicAltPattern = regexp.MustCompile(`_(.*?)_`)
	codePattern      = regexp.MustCompile("`(.*?)`")
	headerPattern    = regexp.MustCompile(`#{1,6}\s*(.*)`)
)

// CleanMarkdown strips the formatting the generator tends to emit, leaving
// plain text for clients that render replies verbatim.
func CleanMarkdown(text string) string {
	text = boldPattern.ReplaceAllString(text, "$1")
	text = boldAltPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = italicAltPattern.ReplaceAllString(text, "$1")
	text = codePattern.ReplaceAllString(text, "$1")
	text = headerPattern.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
