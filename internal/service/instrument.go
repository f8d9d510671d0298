package service

import (
	"context"
	"errors"
	"strings"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

// InstrumentService manages the instrument catalog.
type InstrumentService struct {
	instruments InstrumentRepository
}

// NewInstrumentService creates a new instrument service
func NewInstrumentService(instruments InstrumentRepository) *InstrumentService {
	return &InstrumentService{instruments: instruments}
}

func (s *InstrumentService) List(ctx context.Context) ([]*model.Instrument, error) {
	return s.instruments.List(ctx)
}

func (s *InstrumentService) Get(ctx context.Context, id string) (*model.Instrument, error) {
	inst, err := s.instruments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, ErrInstrumentNotFound
	}
	return inst, nil
}

func (s *InstrumentService) Create(ctx context.Context, req model.CreateInstrumentRequest) (*model.Instrument, error) {
	name := strings.TrimSpace(req.Name)
	existing, err := s.instruments.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrInstrumentExists
	}

	inst := &model.Instrument{Name: name, Category: req.Category}
	if req.DisplayOrder != nil {
		inst.DisplayOrder = *req.DisplayOrder
	}
	if err := s.instruments.Create(ctx, inst); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrInstrumentExists
		}
		return nil, err
	}
	return inst, nil
}

func (s *InstrumentService) Update(ctx context.Context, id string, req model.UpdateInstrumentRequest) (*model.Instrument, error) {
	inst, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		inst.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		inst.Category = req.Category
	}
	if req.DisplayOrder != nil {
		inst.DisplayOrder = *req.DisplayOrder
	}
	if err := s.instruments.Update(ctx, inst); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrInstrumentExists
		}
		return nil, err
	}
	return inst, nil
}

func (s *InstrumentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.instruments.Delete(ctx, id)
}
