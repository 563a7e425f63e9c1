package seed

import (
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"dailybright/internal/models"
	"dailybright/internal/prompt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configuration for the seeder
type Options struct {
	NumUsers int
	Days     int
	// SkipBcrypt hashes with the minimum cost.
	SkipBcrypt bool
	DryRun     bool
	BatchSize  int
}

// Seeder fills a database with a social mesh and a history of answers.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// NewSeeder returns a seeder writing through db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts), opts: opts}
}

// Catalog inserts every catalog prompt missing from the prompts table.
// Running it twice adds nothing.
func Catalog(db *gorm.DB, catalog *prompt.Catalog) (int, error) {
	added := 0
	for _, e := range catalog.Entries() {
		var n int64
		if err := db.Model(&models.Prompt{}).Where("text = ?", e.Text).Count(&n).Error; err != nil {
			return added, fmt.Errorf("look up catalog prompt: %w", err)
		}
		if n > 0 {
			continue
		}
		if err := db.Create(&models.Prompt{Text: e.Text, Tags: e.SeedTags()}).Error; err != nil {
			return added, fmt.Errorf("insert catalog prompt: %w", err)
		}
		added++
	}
	return added, nil
}

// ClearAll deletes every row the seeder writes, children first.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	tables := []any{
		&models.Entry{},
		&models.DailyState{},
		&models.DailyPrompt{},
		&models.Photo{},
		&models.Friendship{},
		&models.Prompt{},
		&models.User{},
	}
	for _, t := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
			return fmt.Errorf("clear %T: %w", t, err)
		}
	}
	return nil
}

// SeedSocialMesh creates count users. Each user is accepted friends with the
// next one in a ring, and a few extra pairs are left pending.
func (s *Seeder) SeedSocialMesh(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	if len(users) < 2 {
		return users, nil
	}

	paired := make(map[string]struct{})
	link := func(a, b *models.User, status models.FriendshipStatus) error {
		key := models.FriendshipPairKey(a.ID, b.ID)
		if _, ok := paired[key]; ok || a.ID == b.ID {
			return nil
		}
		paired[key] = struct{}{}
		return s.factory.CreateFriendship(a, b, status)
	}

	for i, u := range users {
		if err := link(u, users[(i+1)%len(users)], models.FriendshipStatusAccepted); err != nil {
			return nil, fmt.Errorf("create friendship: %w", err)
		}
	}
	for i := 0; i < len(users)/3; i++ {
		a, b := users[rand.IntN(len(users))], users[rand.IntN(len(users))]
		if err := link(a, b, models.FriendshipStatusPending); err != nil {
			return nil, fmt.Errorf("create friendship: %w", err)
		}
	}

	log.Printf("✓ %d users, %d friendships", len(users), len(paired))
	return users, nil
}

// SeedHistory binds a catalog prompt to each of the days before today and
// has most users answer it. Today is left alone so the live flow starts clean.
func (s *Seeder) SeedHistory(users []*models.User, catalog *prompt.Catalog, today time.Time, days int) ([]*models.Entry, error) {
	var entries []*models.Entry
	for d := days; d >= 1; d-- {
		day := today.AddDate(0, 0, -d)
		dp, err := s.dailyPrompt(catalog, day)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if rand.IntN(4) == 0 {
				continue
			}
			entries = append(entries, s.factory.BuildEntry(u, dp))
		}
	}

	if err := s.factory.CreateEntriesBatch(entries); err != nil {
		return nil, fmt.Errorf("create entries: %w", err)
	}
	log.Printf("✓ %d entries over %d days", len(entries), days)
	return entries, nil
}

func (s *Seeder) dailyPrompt(catalog *prompt.Catalog, day time.Time) (*models.DailyPrompt, error) {
	e := catalog.ForDate(day)
	dp := &models.DailyPrompt{
		Date:          models.FormatDate(day),
		ScheduledTime: fmt.Sprintf("%02d:%02d:00", 9+rand.IntN(12), rand.IntN(60)),
		Source:        models.DailyPromptSourceCatalog,
	}
	if s.opts.DryRun {
		s.factory.nextID++
		dp.PromptID = s.factory.nextID
		return dp, nil
	}

	var p models.Prompt
	if err := s.db.Where("text = ?", e.Text).Order("id ASC").First(&p).Error; err != nil {
		p = models.Prompt{Text: e.Text, Tags: e.SeedTags()}
		if err := s.db.Create(&p).Error; err != nil {
			return nil, fmt.Errorf("create prompt: %w", err)
		}
	}
	dp.PromptID = p.ID

	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(dp).Error; err != nil {
		return nil, fmt.Errorf("create daily prompt: %w", err)
	}
	if err := s.db.Where("date = ?", dp.Date).First(dp).Error; err != nil {
		return nil, fmt.Errorf("read daily prompt: %w", err)
	}
	return dp, nil
}

// Run executes the full preset: users, friendships and history.
func (s *Seeder) Run(catalog *prompt.Catalog, today time.Time) error {
	log.Printf("🌱 Seeding %d users with %d days of history...", s.opts.NumUsers, s.opts.Days)

	if !s.opts.DryRun {
		if _, err := Catalog(s.db, catalog); err != nil {
			return err
		}
	}
	users, err := s.SeedSocialMesh(s.opts.NumUsers)
	if err != nil {
		return err
	}
	if _, err := s.SeedHistory(users, catalog, today, s.opts.Days); err != nil {
		return err
	}

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}
