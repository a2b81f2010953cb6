package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/planboard-api/internal/board"
	"github.com/noah-isme/planboard-api/internal/dto"
	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

// ChangeListener is told which collections a committed action touched.
type ChangeListener func(calendarID string, collections []models.Collection)

// BoardService applies user actions to the optimistic board of a calendar.
// Every successful action that changes state counts one pending change per
// touched collection.
type BoardService struct {
	sessions  *SessionStore
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	onChange  ChangeListener
}

// NewBoardService constructs the board service.
func NewBoardService(sessions *SessionStore, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *BoardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardService{sessions: sessions, validator: validate, metrics: metrics, logger: logger}
}

// SetChangeListener registers the hook notified after each committed action.
func (s *BoardService) SetChangeListener(fn ChangeListener) {
	s.onChange = fn
}

func (s *BoardService) validate(req interface{}) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	return nil
}

// mutate runs fn against a copy of the board and swaps it in only when fn
// succeeds, so a rejected action leaves no partial state behind.
func (s *BoardService) mutate(ctx context.Context, calendarID string, fn func(sess *boardSession, b *board.Board) ([]board.EntityRef, error)) (map[models.Collection]int, error) {
	sess, err := s.sessions.get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	changed, pending, err := commit(sess, fn)
	if err != nil {
		return nil, err
	}

	for _, collection := range changed {
		s.metrics.AddPending(collection, 1)
	}
	if len(changed) > 0 && s.onChange != nil {
		s.onChange(calendarID, changed)
	}
	return pending, nil
}

func commit(sess *boardSession, fn func(sess *boardSession, b *board.Board) ([]board.EntityRef, error)) ([]models.Collection, map[models.Collection]int, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	working := sess.board.Clone()
	touched, err := fn(sess, working)
	if err != nil {
		return nil, nil, err
	}
	sess.board = working
	return sess.record(touched), sess.pendingSnapshot(), nil
}

// Board returns a copy of the optimistic board, loading it on first access.
func (s *BoardService) Board(ctx context.Context, calendarID string) (*dto.BoardResponse, error) {
	sess, err := s.sessions.get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return &dto.BoardResponse{Board: sess.board.Clone(), Palette: board.Palette(), Status: sess.status()}, nil
}

// Status reports the sync state of every collection.
func (s *BoardService) Status(ctx context.Context, calendarID string) ([]models.CollectionStatus, error) {
	sess, err := s.sessions.get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.status(), nil
}

// AddItem creates an item at the front layer of a container.
func (s *BoardService) AddItem(ctx context.Context, calendarID string, req dto.CreateItemRequest) (*dto.MutationResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	var result *board.MoveResult
	pending, err := s.mutate(ctx, calendarID, func(_ *boardSession, b *board.Board) ([]board.EntityRef, error) {
		var err error
		result, err = b.AddItem(req.ContainerID, req.Item())
		if err != nil {
			return nil, err
		}
		return result.Touched, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.MutationResponse{Result: result, Pending: pending}, nil
}

// EditItem updates the content or colour of an item.
func (s *BoardService) EditItem(ctx context.Context, calendarID, itemID string, req dto.UpdateItemRequest) (*dto.MutationResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	var item models.Item
	pending, err := s.mutate(ctx, calendarID, func(_ *boardSession, b *board.Board) ([]board.EntityRef, error) {
		edited, owner, err := b.EditItem(itemID, board.ItemPatch{Content: req.Content, Color: req.Color})
		if err != nil {
			return nil, err
		}
		item = edited
		return []board.EntityRef{owner}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.MutationResponse{Result: item, Pending: pending}, nil
}

// DeleteItem soft-deletes an item.
func (s *BoardService) DeleteItem(ctx context.Context, calendarID, itemID string) (*dto.MutationResponse, error) {
	pending, err := s.mutate(ctx, calendarID, func(_ *boardSession, b *board.Board) ([]board.EntityRef, error) {
		owner, err := b.DeleteItem(itemID)
		if err != nil {
			return nil, err
		}
		return []board.EntityRef{owner}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.MutationResponse{Pending: pending}, nil
}

// SelectItem raises an item to the front of its container. Only a change of
// stacking order is counted.
func (s *BoardService) SelectItem(ctx context.Context, calendarID, itemID string) (*dto.MutationResponse, error) {
	var raised bool
	pending, err := s.mutate(ctx, calendarID, func(_ *boardSession, b *board.Board) ([]board.EntityRef, error) {
		changed, owner, err := b.SelectItem(itemID)
		if err != nil {
			return nil, err
		}
		raised = changed
		if !changed {
			return nil, nil
		}
		return []board.EntityRef{owner}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.MutationResponse{Result: map[string]bool{"raised": raised}, Pending: pending}, nil
}

// ApplyDrop applies a complete terminal intent without an open gesture.
func (s *BoardService) ApplyDrop(ctx context.Context, calendarID string, req dto.DropRequest) (*dto.MutationResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	var outcome *board.Outcome
	pending, err := s.mutate(ctx, calendarID, func(_ *boardSession, b *board.Board) ([]board.EntityRef, error) {
		var err error
		outcome, err = board.Apply(b, req.Intent())
		if err != nil {
			return nil, err
		}
		return outcome.Touched, nil
	})
	if err != nil {
		s.metrics.RecordGesture(models.DragPhaseEnd, "rejected")
		return nil, err
	}
	s.metrics.RecordGesture(models.DragPhaseEnd, gestureOutcome(outcome))
	return &dto.MutationResponse{Result: outcome, Pending: pending}, nil
}

// StartDrag opens a gesture on an item, palette entry or person.
func (s *BoardService) StartDrag(ctx context.Context, calendarID string, req dto.StartDragRequest) (*board.Drag, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	sess, err := s.sessions.get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	drag, err := sess.board.StartDrag(uuid.NewString(), req.Kind, req.ItemID, req.SourceContainerID)
	if err != nil {
		s.metrics.RecordGesture(models.DragPhaseStart, "rejected")
		return nil, err
	}
	sess.drags[drag.ID] = drag
	s.metrics.RecordGesture(models.DragPhaseStart, "ok")
	copied := *drag
	return &copied, nil
}

// DragOver resolves the hovered target and previews the drop. The board and
// the pending counters are left untouched.
func (s *BoardService) DragOver(ctx context.Context, calendarID, dragID string, req dto.DragOverRequest) (*board.Preview, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	sess, err := s.sessions.get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	drag, ok := sess.drags[dragID]
	if !ok {
		return nil, dragNotFound(dragID)
	}
	preview := drag.Over(sess.board, req.ResolveRequest(), req.Intent())
	switch {
	case preview.Target == nil:
		s.metrics.RecordGesture(models.DragPhaseOver, "none")
	case preview.Error != "":
		s.metrics.RecordGesture(models.DragPhaseOver, "rejected")
	default:
		s.metrics.RecordGesture(models.DragPhaseOver, "ok")
	}
	return preview, nil
}

// EndDrag closes a gesture and applies its intent exactly once. The gesture is
// discarded even when the drop is rejected.
func (s *BoardService) EndDrag(ctx context.Context, calendarID, dragID string, req dto.DragEndRequest) (*dto.MutationResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	var outcome *board.Outcome
	pending, err := s.mutate(ctx, calendarID, func(sess *boardSession, b *board.Board) ([]board.EntityRef, error) {
		drag, ok := sess.drags[dragID]
		if !ok {
			return nil, dragNotFound(dragID)
		}
		delete(sess.drags, dragID)
		var err error
		outcome, err = drag.End(b, req.Intent())
		if err != nil {
			return nil, err
		}
		return outcome.Touched, nil
	})
	if err != nil {
		s.metrics.RecordGesture(models.DragPhaseEnd, "rejected")
		return nil, err
	}
	s.metrics.RecordGesture(models.DragPhaseEnd, gestureOutcome(outcome))
	return &dto.MutationResponse{Result: outcome, Pending: pending}, nil
}

// CancelDrag discards a gesture.
func (s *BoardService) CancelDrag(ctx context.Context, calendarID, dragID string) error {
	sess, err := s.sessions.get(ctx, calendarID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, ok := sess.drags[dragID]; !ok {
		return dragNotFound(dragID)
	}
	delete(sess.drags, dragID)
	s.metrics.RecordGesture(models.DragPhaseCancel, "ok")
	return nil
}

// AddPerson registers a person.
func (s *BoardService) AddPerson(ctx context.Context, calendarID string, req dto.CreatePersonRequest) (*dto.MutationResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	var person models.Person
	pending, err := s.mutate(ctx, calendarID, func(_ *boardSession, b *board.Board) ([]board.EntityRef, error) {
		var err error
		person, err = b.AddPerson(req.Name, req.Color)
		if err != nil {
			return nil, err
		}
		return []board.EntityRef{{Type: models.EntityTypePeople, Key: person.ID}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.MutationResponse{Result: person, Pending: pending}, nil
}

// RemovePerson soft-deletes a person and clears their tags.
func (s *BoardService) RemovePerson(ctx context.Context, calendarID, personID string) (*dto.MutationResponse, error) {
	pending, err := s.mutate(ctx, calendarID, func(_ *boardSession, b *board.Board) ([]board.EntityRef, error) {
		return b.RemovePerson(personID)
	})
	if err != nil {
		return nil, err
	}
	return &dto.MutationResponse{Pending: pending}, nil
}

// AssignPerson tags a person on an item. Tagging twice is a no-op.
func (s *BoardService) AssignPerson(ctx context.Context, calendarID, itemID string, req dto.AssignPersonRequest) (*dto.MutationResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.tag(ctx, calendarID, func(b *board.Board) (bool, board.EntityRef, error) {
		return b.AssignPerson(itemID, req.PersonID)
	})
}

// UnassignPerson removes a person tag from an item.
func (s *BoardService) UnassignPerson(ctx context.Context, calendarID, itemID, personID string) (*dto.MutationResponse, error) {
	return s.tag(ctx, calendarID, func(b *board.Board) (bool, board.EntityRef, error) {
		return b.UnassignPerson(itemID, personID)
	})
}

func (s *BoardService) tag(ctx context.Context, calendarID string, fn func(b *board.Board) (bool, board.EntityRef, error)) (*dto.MutationResponse, error) {
	var changed bool
	pending, err := s.mutate(ctx, calendarID, func(_ *boardSession, b *board.Board) ([]board.EntityRef, error) {
		ok, owner, err := fn(b)
		if err != nil {
			return nil, err
		}
		changed = ok
		if !ok {
			return nil, nil
		}
		return []board.EntityRef{owner}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.MutationResponse{Result: map[string]bool{"changed": changed}, Pending: pending}, nil
}

// CreateTemplate registers an empty weekly template.
func (s *BoardService) CreateTemplate(ctx context.Context, calendarID string, req dto.CreateTemplateRequest) (*dto.MutationResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	var tmpl *models.Template
	pending, err := s.mutate(ctx, calendarID, func(_ *boardSession, b *board.Board) ([]board.EntityRef, error) {
		var err error
		tmpl, err = b.CreateTemplate(req.Name)
		if err != nil {
			return nil, err
		}
		return []board.EntityRef{{Type: models.EntityTypeTemplate, Key: tmpl.ID}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.MutationResponse{Result: tmpl, Pending: pending}, nil
}

// ApplyTemplate merges a template into the schedule of an ISO week, or of every
// week its recurrence rule hits. The whole merge is one logical action.
func (s *BoardService) ApplyTemplate(ctx context.Context, calendarID, templateID string, req dto.ApplyTemplateRequest) (*dto.MutationResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	weeks := []board.Week{{Year: req.Year, Week: req.Week}}
	if req.Recurrence != "" {
		var err error
		if weeks, err = board.RecurringWeeks(req.Year, req.Week, req.Recurrence, board.MaxRecurringWeeks); err != nil {
			return nil, err
		}
	}
	if len(weeks) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recurrence matches no week")
	}

	var applied dto.ApplyTemplateResponse
	pending, err := s.mutate(ctx, calendarID, func(_ *boardSession, b *board.Board) ([]board.EntityRef, error) {
		applied = dto.ApplyTemplateResponse{}
		owners := make([]board.EntityRef, 0, len(weeks))
		for _, w := range weeks {
			added, owner, err := b.ApplyTemplate(templateID, w.Year, w.Week)
			if err != nil {
				return nil, err
			}
			applied.Added += added
			owners = append(owners, owner)
		}
		applied.ScheduleKey = owners[0].Key
		if len(owners) > 1 {
			for _, owner := range owners {
				applied.ScheduleKeys = append(applied.ScheduleKeys, owner.Key)
			}
		}
		return owners, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("template applied",
		zap.String("calendar_id", calendarID),
		zap.String("template_id", templateID),
		zap.Int("weeks", len(weeks)),
		zap.Int("added", applied.Added),
	)
	return &dto.MutationResponse{Result: applied, Pending: pending}, nil
}

func dragNotFound(dragID string) error {
	return appErrors.Clone(appErrors.ErrDragNotFound, fmt.Sprintf("drag %s not found", dragID))
}

func gestureOutcome(outcome *board.Outcome) string {
	if outcome == nil || !outcome.Changed {
		return "noop"
	}
	return "ok"
}
