// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"dailybright/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

var timezones = []string{
	"UTC", "Europe/London", "Europe/Berlin", "America/New_York",
	"America/Los_Angeles", "Asia/Tokyo", "Australia/Sydney",
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	// synthetic ID counter when running in DryRun mode
	nextID   uint
	password string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	return &Factory{db: db, opts: opts, nextID: 1000}
}

func (f *Factory) hashedPassword() string {
	if f.password != "" {
		return f.password
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	f.password = string(hashed)
	return f.password
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first := gofakeit.FirstName()
	user := &models.User{
		Email:       strings.ToLower(fmt.Sprintf("%s.%s@example.com", first, gofakeit.LetterN(6))),
		DisplayName: first,
		Timezone:    timezones[rand.IntN(len(timezones))],
		Password:    f.hashedPassword(),
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Email)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateFriendship persists a friendship relationship between two users.
func (f *Factory) CreateFriendship(requester, addressee *models.User, status models.FriendshipStatus) error {
	if f.opts.DryRun {
		return nil
	}
	friendship := &models.Friendship{
		UserID:   requester.ID,
		FriendID: addressee.ID,
		Status:   status,
	}
	return f.db.Create(friendship).Error
}

// BuildEntry constructs an answer by user to the prompt of date without
// persisting it. Late answers are rare.
func (f *Factory) BuildEntry(user *models.User, dp *models.DailyPrompt) *models.Entry {
	entry := &models.Entry{
		UserID:   user.ID,
		Date:     dp.Date,
		PromptID: dp.PromptID,
		Text:     gofakeit.Sentence(gofakeit.Number(4, 18)),
		OnTime:   rand.IntN(10) > 0,
	}
	if rand.IntN(5) == 0 {
		url := fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
		entry.PhotoURL = &url
	}

	if day, err := time.Parse(models.DateLayout, dp.Date); err == nil {
		entry.CreatedAt = day.Add(time.Duration(9+rand.IntN(14))*time.Hour + time.Duration(rand.IntN(60))*time.Minute)
	}
	return entry
}

// CreateEntriesBatch persists entries in a single DB call when possible.
func (f *Factory) CreateEntriesBatch(entries []*models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, e := range entries {
			f.nextID++
			e.ID = f.nextID
		}
		log.Printf("[dry-run] CreateEntriesBatch: %d entries (no DB write)", len(entries))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.CreateInBatches(entries, batch).Error
}
