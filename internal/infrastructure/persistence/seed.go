package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/javierleyes/vidro-android/internal/domain/catalog"
	"github.com/javierleyes/vidro-android/internal/domain/schedule"
	"github.com/javierleyes/vidro-android/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// defaultGlasses is the catalog the shop starts with
var defaultGlasses = []struct {
	name        string
	transparent float64
	color       float64 // 0 means no color variant
}{
	{"Vidrio Templado", 150, 180},
	{"Vidrio Laminado", 200, 240},
	{"Vidrio Flotado", 100, 0},
	{"Vidrio Espejo", 180, 0},
	{"Vidrio Decorativo", 250, 290},
}

// Seeder fills empty tables with a starting catalog and fake visits
type Seeder struct {
	glasses catalog.GlassRepository
	visits  schedule.VisitRepository
	faker   *gofakeit.Faker
	logger  *zap.Logger
	now     func() time.Time
}

// NewSeeder creates a seeder. A zero seed picks a random one.
func NewSeeder(glasses catalog.GlassRepository, visits schedule.VisitRepository, seed uint64, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{
		glasses: glasses,
		visits:  visits,
		faker:   gofakeit.New(seed),
		logger:  log,
		now:     time.Now,
	}
}

// Seed inserts the default glasses and visitCount visits into empty tables.
// Tables that already hold rows are left alone.
func (s *Seeder) Seed(ctx context.Context, visitCount int) error {
	if err := s.seedGlasses(ctx); err != nil {
		return err
	}
	return s.seedVisits(ctx, visitCount)
}

func (s *Seeder) seedGlasses(ctx context.Context) error {
	n, err := s.glasses.Count(ctx)
	if err != nil {
		return fmt.Errorf("count glasses: %w", err)
	}
	if n > 0 {
		s.logger.Debug("glasses already seeded", zap.Int64("count", n))
		return nil
	}

	for _, d := range defaultGlasses {
		g := catalog.Glass{
			Name:             d.name,
			PriceTransparent: valueobject.MustPrice(d.transparent),
		}
		if d.color > 0 {
			g.PriceColor = valueobject.MustPrice(d.color)
		}
		if err := s.glasses.Create(ctx, &g); err != nil {
			return fmt.Errorf("seed glass %q: %w", d.name, err)
		}
	}
	s.logger.Info("seeded glasses", zap.Int("count", len(defaultGlasses)))
	return nil
}

func (s *Seeder) seedVisits(ctx context.Context, count int) error {
	n, err := s.visits.Count(ctx)
	if err != nil {
		return fmt.Errorf("count visits: %w", err)
	}
	if n > 0 || count <= 0 {
		return nil
	}

	start := s.now().UTC().Truncate(time.Hour)
	for i := 0; i < count; i++ {
		v, err := s.visits.Create(ctx, s.fakeVisit(start))
		if err != nil {
			return fmt.Errorf("seed visit: %w", err)
		}
		// Roughly a third of the history is already done
		if i%3 == 0 {
			if _, err := s.visits.SetStatus(ctx, v.ID, schedule.StatusCompleted); err != nil {
				return fmt.Errorf("seed visit status: %w", err)
			}
		}
	}
	s.logger.Info("seeded visits", zap.Int("count", count))
	return nil
}

func (s *Seeder) fakeVisit(start time.Time) schedule.CreateVisitRequest {
	date := s.faker.DateRange(start.AddDate(0, 0, -14), start.AddDate(0, 0, 30)).Truncate(15 * time.Minute)
	addr := s.faker.Address()
	return schedule.CreateVisitRequest{
		Date:    date,
		Name:    s.faker.Name(),
		Address: fmt.Sprintf("%s, %s", addr.Street, addr.City),
		Phone:   s.faker.Phone(),
	}
}
