// exposes a Store interface that is passed to API modules and the applier
package db

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mihalykrich/real-estate-display-system/internal/model"
)

type Store interface {
	// user functions
	CreateUser(email, hashedPassword string, name *string, role string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	UpdateUserProfile(id int, email string, name *string) error

	// display functions
	GetDisplayByID(id int) (model.Display, error)
	GetDisplayByDeviceID(deviceID string) (model.Display, error)
	ListDisplays() ([]model.Display, error)
	UpdateDisplay(id int, update DisplayUpdate) (model.Display, error)
	SetDisplayQRCode(id int, fileName string) error
	ReplaceDisplays(displays []model.Display) error
	ApplyContentToDisplay(displayID int, contentData string, images []model.ScheduledImage) error

	// scheduled display functions
	CreateScheduledDisplay(s model.ScheduledDisplay) (model.ScheduledDisplay, error)
	GetScheduledDisplay(id int) (model.ScheduledDisplay, error)
	ListScheduledDisplays(activeOnly *bool) ([]model.ScheduledDisplay, error)
	UpdateScheduledDisplay(id int, update ScheduledDisplayUpdate) (model.ScheduledDisplay, error)
	SetScheduledDisplayActive(id int, active bool) error
	DeleteScheduledDisplay(id int) error

	// scheduled image functions
	UpsertScheduledImage(img model.ScheduledImage) (model.ScheduledImage, error)
	DeleteScheduledImage(scheduledDisplayID int, imageType string) error
	ListScheduledImages(scheduledDisplayID int) ([]model.ScheduledImage, error)

	// applier functions
	ListDueScheduledDisplays(now time.Time) ([]model.ScheduledDisplay, error)
	ClaimScheduledDisplay(id int, expectedNext time.Time, now time.Time) (bool, error)
	ReleaseScheduledDisplayClaim(id int) error
	MarkScheduledDisplayExecuted(id int, executedAt time.Time, next *time.Time, deactivate bool) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(database *sqlx.DB) Store {
	if database == nil {
		database = DB
	}
	return &pgStore{db: database}
}
