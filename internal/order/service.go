package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tvtrungg/covid-management-system/internal/notification"
	"github.com/tvtrungg/covid-management-system/internal/pack"
	"github.com/tvtrungg/covid-management-system/internal/person"
)

var (
	ErrNoProfile        = errors.New("order: no covid profile for user")
	ErrPackageNotFound  = errors.New("order: package not found")
	ErrLimitExceeded    = errors.New("order: package purchase limit reached")
	ErrItemNotInPackage = errors.New("order: product not in package")
	ErrQuantityExceeded = errors.New("order: item quantity above package maximum")
	ErrNoItems          = errors.New("order: order needs at least one item")
	ErrNotOwner         = errors.New("order: order belongs to another person")
)

type Service struct {
	repo     *Repository
	packs    *pack.Repository
	people   *person.Repository
	notifier *notification.Notifier
}

func NewService(repo *Repository, packs *pack.Repository, people *person.Repository) *Service {
	return &Service{repo: repo, packs: packs, people: people}
}

func (s *Service) WithNotifier(n *notification.Notifier) *Service {
	s.notifier = n
	return s
}

// Place validates the items against the package lines and the per-person
// window limit, then writes the order.
func (s *Service) Place(ctx context.Context, userID, packageID int64, items []ItemInput) (Order, error) {
	if len(items) == 0 {
		return Order{}, ErrNoItems
	}

	p, err := s.people.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, person.ErrNotFound) {
			return Order{}, ErrNoProfile
		}
		return Order{}, err
	}

	pkg, err := s.packs.Get(ctx, packageID)
	if err != nil {
		if errors.Is(err, pack.ErrNotFound) {
			return Order{}, ErrPackageNotFound
		}
		return Order{}, err
	}

	count, err := s.packs.CountOrdersSince(ctx, packageID, p.ID, pkg.WindowStart(time.Now().UTC()))
	if err != nil {
		return Order{}, err
	}
	if count >= pkg.LimitPerPerson {
		return Order{}, ErrLimitExceeded
	}

	lines := make(map[int64]pack.PackageLine, len(pkg.Products))
	for _, l := range pkg.Products {
		lines[l.ProductID] = l
	}

	var total int64
	orderItems := make([]Item, 0, len(items))
	for _, in := range items {
		line, ok := lines[in.ProductID]
		if !ok {
			return Order{}, fmt.Errorf("%w: product %d", ErrItemNotInPackage, in.ProductID)
		}
		if in.Quantity < 1 || in.Quantity > line.MaxQuantity {
			return Order{}, fmt.Errorf("%w: product %d", ErrQuantityExceeded, in.ProductID)
		}
		itemTotal := line.Price * int64(in.Quantity)
		total += itemTotal
		orderItems = append(orderItems, Item{
			ProductID:  in.ProductID,
			Quantity:   in.Quantity,
			UnitPrice:  line.Price,
			TotalPrice: itemTotal,
		})
	}

	id, err := s.repo.Create(ctx, p.ID, packageID, total, orderItems)
	if err != nil {
		return Order{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.OrderCreated(ctx, userID, id, total)
	}

	return s.repo.Get(ctx, id)
}

func (s *Service) ListOwn(ctx context.Context, userID int64) ([]Order, error) {
	p, err := s.people.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, person.ErrNotFound) {
			return nil, ErrNoProfile
		}
		return nil, err
	}
	return s.repo.ListByPerson(ctx, p.ID)
}

// GetOwn fetches one order and verifies it belongs to the caller's profile.
func (s *Service) GetOwn(ctx context.Context, userID, orderID int64) (Order, error) {
	p, err := s.people.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, person.ErrNotFound) {
			return Order{}, ErrNoProfile
		}
		return Order{}, err
	}

	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if o.PersonID != p.ID {
		return Order{}, ErrNotOwner
	}
	return o, nil
}
