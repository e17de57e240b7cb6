package offerings

import (
	"fmt"
	"sort"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Service статический каталог услуг, загружается при старте и не меняется
type Service struct {
	byID  map[string]*domain.ServiceOffering
	order []string
}

// NewService проверяет и индексирует каталог
func NewService(items []domain.ServiceOffering) (*Service, error) {
	s := &Service{byID: make(map[string]*domain.ServiceOffering, len(items))}

	for i := range items {
		item := items[i]
		if err := validate(&item); err != nil {
			return nil, err
		}
		if _, exists := s.byID[item.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidOffering, item.ID)
		}
		s.byID[item.ID] = &item
		s.order = append(s.order, item.ID)
	}

	sort.Strings(s.order)
	return s, nil
}

// Get возвращает копию услуги по ID
func (s *Service) Get(id string) (*domain.ServiceOffering, error) {
	item, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrOfferingNotFound, id)
	}
	c := *item
	return &c, nil
}

// List возвращает все услуги, отсортированные по ID
func (s *Service) List() []domain.ServiceOffering {
	out := make([]domain.ServiceOffering, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

func validate(o *domain.ServiceOffering) error {
	switch {
	case o.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidOffering)
	case o.DurationMinutes < domain.MinDurationMinutes || o.DurationMinutes > domain.MaxDurationMinutes:
		return fmt.Errorf("%w: %q duration %d out of range [%d, %d]",
			ErrInvalidOffering, o.ID, o.DurationMinutes, domain.MinDurationMinutes, domain.MaxDurationMinutes)
	case o.MinimumNoticeMinutes < 0 || o.MinimumNoticeMinutes > domain.MaxNoticeMinutes:
		return fmt.Errorf("%w: %q minimum notice %d out of range", ErrInvalidOffering, o.ID, o.MinimumNoticeMinutes)
	case o.Price != nil && *o.Price < 0:
		return fmt.Errorf("%w: %q negative price", ErrInvalidOffering, o.ID)
	}
	return nil
}
