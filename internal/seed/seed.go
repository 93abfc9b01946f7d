// Package seed populates the database with sample content for local
// development and demos.
package seed

import (
	"fmt"
	"time"

	"inkwell/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sampleWork struct {
	Title          string
	Content        string
	Excerpt        string
	Category       models.Category
	IsPersonal     bool
	Status         models.Status
	IsPinned       bool
	CollectionID   string
	CollectionName string
	AgeDays        int
}

var sampleWorks = []sampleWork{
	{
		Title:      "The Lighthouse Keeper's Ledger",
		Content:    "Entry the first. The lamp took three matches tonight, the wind having opinions of its own. A fishing boat passed close enough that I could hear someone singing off key, and I wrote down the tune as best I could remember it, which is to say badly.",
		Excerpt:    "The lamp took three matches tonight.",
		Category:   models.CategoryNovel,
		IsPersonal: true,
		Status:     models.StatusPublished,
		IsPinned:   true,
	},
	{
		Title:          "Letters from the Harbor, I",
		Content:        "You asked what the harbor smells like in winter. Salt, mostly, and diesel, and underneath both of them something older that I have decided is patience.",
		Excerpt:        "Salt, mostly, and diesel.",
		Category:       models.CategoryProse,
		IsPersonal:     true,
		Status:         models.StatusPublished,
		CollectionID:   "letters-from-the-harbor",
		CollectionName: "Letters from the Harbor",
		AgeDays:        14,
	},
	{
		Title:          "Letters from the Harbor, II",
		Content:        "The ferry ran late today and nobody minded. I have been trying to learn that trick from them, the not minding, and I report mixed results.",
		Excerpt:        "The ferry ran late today and nobody minded.",
		Category:       models.CategoryProse,
		IsPersonal:     true,
		Status:         models.StatusPublished,
		CollectionID:   "letters-from-the-harbor",
		CollectionName: "Letters from the Harbor",
		AgeDays:        7,
	},
	{
		Title:      "On Rereading",
		Content:    "A book reread is a conversation resumed. The text has not changed, which is precisely how you discover that you have.",
		Excerpt:    "A book reread is a conversation resumed.",
		Category:   models.CategoryEssay,
		IsPersonal: true,
		Status:     models.StatusPublished,
		AgeDays:    3,
	},
	{
		Title:      "Night Bus",
		Content:    "Four stops of sodium light,\nthe driver humming something\nthat was a hymn before\nit was a habit.",
		Category:   models.CategoryPoetry,
		IsPersonal: true,
		Status:     models.StatusPublished,
		AgeDays:    1,
	},
	{
		Title:    "First Frost",
		Content:  "The garden gave up its argument with October quietly, the way most long arguments end.",
		Excerpt:  "The garden gave up its argument with October.",
		Category: models.CategoryProse,
		Status:   models.StatusPending,
	},
}

const defaultSignature = "ink dries, words remain"

// SampleContent seeds a demo reader account, the admin's sample works, and a
// default site signature. Seeding is idempotent: works are matched by title.
func SampleContent(db *gorm.DB) error {
	var admin models.User
	if err := db.First(&admin, 1).Error; err != nil {
		return fmt.Errorf("site admin must exist before seeding: %w", err)
	}

	reader, err := ensureReader(db)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, item := range sampleWorks {
		var count int64
		if err := db.Model(&models.Work{}).Where("title = ?", item.Title).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		work := models.Work{
			Title:          item.Title,
			Content:        item.Content,
			Excerpt:        item.Excerpt,
			Category:       item.Category,
			IsPersonal:     item.IsPersonal,
			Status:         item.Status,
			IsPinned:       item.IsPinned,
			CollectionName: item.CollectionName,
			CreatedAt:      now.AddDate(0, 0, -item.AgeDays),
		}
		if item.CollectionID != "" {
			id := item.CollectionID
			work.CollectionID = &id
			col := models.Collection{ID: id, Name: item.CollectionName, Author: admin.Username}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&col).Error; err != nil {
				return err
			}
		}
		if item.IsPersonal {
			work.Author = admin.Username
			work.SubmittedBy = admin.ID
		} else {
			work.Author = reader.Username
			work.SubmittedBy = reader.ID
		}
		if err := db.Create(&work).Error; err != nil {
			return err
		}
	}

	setting := models.Setting{Key: models.SettingSiteSignature, Value: defaultSignature}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&setting).Error; err != nil {
		return err
	}

	return nil
}

func ensureReader(db *gorm.DB) (*models.User, error) {
	var reader models.User
	err := db.Where("username = ?", "demo_reader").First(&reader).Error
	if err == nil {
		return &reader, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("reading-lamp"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	reader = models.User{Username: "demo_reader", Password: string(hashed)}
	if err := db.Create(&reader).Error; err != nil {
		return nil, err
	}
	return &reader, nil
}
