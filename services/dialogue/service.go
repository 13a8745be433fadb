package dialogue

import (
	"context"
	"sync"
	"time"

	"roomwise/models"
	"roomwise/services/nlp"
	"roomwise/utils"

	"go.uber.org/zap"
)

// DefaultMaxTranscriptTurns bounds how much dialogue history is kept per
// user and replayed to the extractor.
const DefaultMaxTranscriptTurns = 20

// Service runs one dialogue turn end to end: extraction, slot merging,
// intent routing, response generation and context persistence.
type Service interface {
	// ProcessMessage handles one user message, calling emit for each
	// stream record (deltas first, then at most one action or error).
	ProcessMessage(ctx context.Context, userID, message string, emit func(models.StreamRecord) error) error
	// ClearContext drops the user's dialogue state.
	ClearContext(ctx context.Context, userID string) error
	// SetLastBooking records a confirmed booking so follow-up turns can
	// refer to "it".
	SetLastBooking(ctx context.Context, userID, bookingID string) error
}

type DefaultService struct {
	Store              ContextStore
	NLP                nlp.Client
	Router             *Router
	MaxTranscriptTurns int

	userLocks sync.Map // userID -> *sync.Mutex
}

func NewDefaultService(store ContextStore, client nlp.Client, router *Router) *DefaultService {
	return &DefaultService{
		Store:              store,
		NLP:                client,
		Router:             router,
		MaxTranscriptTurns: DefaultMaxTranscriptTurns,
	}
}

// lockUser serializes turns per user so concurrent messages cannot
// interleave context reads and writes.
func (s *DefaultService) lockUser(userID string) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *DefaultService) ProcessMessage(ctx context.Context, userID, message string, emit func(models.StreamRecord) error) error {
	logger := utils.GetLogger().With(zap.String("userID", userID))
	unlock := s.lockUser(userID)
	defer unlock()

	dc, err := s.Store.Get(ctx, userID)
	if err != nil {
		logger.Error("failed to load dialogue context", zap.Error(err))
		dc = &models.DialogueContext{}
	}

	extraction, err := s.NLP.ParseIntent(ctx, message, dc.Transcript)
	if err != nil {
		// Extraction failure never mutates the stored context.
		logger.Error("intent extraction failed", zap.Error(err))
		return emit(models.StreamRecord{Type: models.StreamTypeDelta, Content: technicalErrorMessage})
	}

	slots := SanitizeSlots(extraction.Slots)
	ApplyTurn(dc, extraction.Intent, slots)

	outcome, err := s.Router.Route(ctx, userID, dc)
	if err != nil {
		logger.Error("intent routing failed", zap.Error(err))
		return emit(models.StreamRecord{Type: models.StreamTypeError, Content: technicalErrorMessage})
	}

	var reply string
	if outcome.Static != "" {
		reply = outcome.Static
		if err := emit(models.StreamRecord{Type: models.StreamTypeDelta, Content: reply}); err != nil {
			return err
		}
	} else {
		reply, err = s.NLP.GenerateStream(ctx, outcome.Situation, func(delta string) error {
			return emit(models.StreamRecord{Type: models.StreamTypeDelta, Content: delta})
		})
		if err != nil {
			// Nothing is persisted for a turn whose reply never
			// finished streaming.
			logger.Error("response generation failed", zap.Error(err))
			return emit(models.StreamRecord{Type: models.StreamTypeError, Content: technicalErrorMessage})
		}
		if outcome.Verbatim != "" {
			reply += "\n" + outcome.Verbatim
			if err := emit(models.StreamRecord{Type: models.StreamTypeDelta, Content: "\n" + outcome.Verbatim}); err != nil {
				return err
			}
		}
	}

	// An extraction failure turn leaves the context exactly as it was.
	if extraction.Intent != models.IntentExternalError {
		now := time.Now()
		dc.Transcript = append(dc.Transcript,
			models.DialogueTurn{Role: "user", Content: message, At: now},
			models.DialogueTurn{Role: "assistant", Content: reply, At: now},
		)
		dc.Transcript = trimTranscript(dc.Transcript, s.maxTurns())
		if err := s.Store.Set(ctx, userID, dc); err != nil {
			logger.Error("failed to persist dialogue context", zap.Error(err))
			return emit(models.StreamRecord{Type: models.StreamTypeError, Content: technicalErrorMessage})
		}
	}

	// The action record goes out only once the transcript is durable, so
	// a client acting on it cannot race a lost context write.
	if outcome.Action != nil {
		return emit(models.StreamRecord{Type: models.StreamTypeAction, Data: outcome.Action})
	}
	return nil
}

func (s *DefaultService) ClearContext(ctx context.Context, userID string) error {
	return s.Store.Clear(ctx, userID)
}

func (s *DefaultService) SetLastBooking(ctx context.Context, userID, bookingID string) error {
	unlock := s.lockUser(userID)
	defer unlock()

	dc, err := s.Store.Get(ctx, userID)
	if err != nil {
		return err
	}
	dc.LastBookingID = bookingID
	// A confirmed action closes the pending request.
	dc.Intent = ""
	dc.Slots = models.SlotMap{}
	return s.Store.Set(ctx, userID, dc)
}

func (s *DefaultService) maxTurns() int {
	if s.MaxTranscriptTurns > 0 {
		return s.MaxTranscriptTurns
	}
	return DefaultMaxTranscriptTurns
}

func trimTranscript(turns []models.DialogueTurn, max int) []models.DialogueTurn {
	if len(turns) <= max {
		return turns
	}
	return turns[len(turns)-max:]
}
