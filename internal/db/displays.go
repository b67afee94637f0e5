package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mihalykrich/real-estate-display-system/internal/model"
)

const displayColumns = `
	id, address, location, price, price_type, bedrooms, bathrooms, garage,
	property_type, description, features, main_image, image1, image2, image3,
	qr_code_path, company_logo, contact_number, email, sidebar_color,
	carousel_enabled, carousel_duration, carousel_transition, device_id,
	created_at, updated_at`

func (p *pgStore) GetDisplayByID(id int) (model.Display, error) {
	var d model.Display
	err := p.db.Get(&d, `SELECT `+displayColumns+` FROM displays WHERE id = $1;`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Display{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Int("display_id", id).Msg("GetDisplayByID failed")
	}
	return d, err
}

func (p *pgStore) GetDisplayByDeviceID(deviceID string) (model.Display, error) {
	var d model.Display
	err := p.db.Get(&d, `SELECT `+displayColumns+` FROM displays WHERE device_id = $1;`, deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Display{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("GetDisplayByDeviceID failed")
	}
	return d, err
}

func (p *pgStore) ListDisplays() ([]model.Display, error) {
	var out []model.Display
	if err := p.db.Select(&out, `SELECT `+displayColumns+` FROM displays ORDER BY id;`); err != nil {
		log.Error().Err(err).Msg("ListDisplays failed")
		return nil, err
	}
	return out, nil
}

// DisplayUpdate holds optional field changes for a display; nil fields keep
// their stored value.
type DisplayUpdate struct {
	Address            *string
	Location           *string
	Price              *string
	PriceType          *string
	Bedrooms           *int
	Bathrooms          *int
	Garage             *int
	PropertyType       *string
	Description        *string
	Features           *string
	ContactNumber      *string
	Email              *string
	SidebarColor       *string
	CarouselEnabled    *bool
	CarouselDuration   *int
	CarouselTransition *string
	DeviceID           *string
}

func (p *pgStore) UpdateDisplay(id int, update DisplayUpdate) (model.Display, error) {
	var d model.Display
	const q = `
	UPDATE displays
	   SET address             = COALESCE($2,  address),
	       location            = COALESCE($3,  location),
	       price               = COALESCE($4,  price),
	       price_type          = COALESCE($5,  price_type),
	       bedrooms            = COALESCE($6,  bedrooms),
	       bathrooms           = COALESCE($7,  bathrooms),
	       garage              = COALESCE($8,  garage),
	       property_type       = COALESCE($9,  property_type),
	       description         = COALESCE($10, description),
	       features            = COALESCE($11, features),
	       contact_number      = COALESCE($12, contact_number),
	       email               = COALESCE($13, email),
	       sidebar_color       = COALESCE($14, sidebar_color),
	       carousel_enabled    = COALESCE($15, carousel_enabled),
	       carousel_duration   = COALESCE($16, carousel_duration),
	       carousel_transition = COALESCE($17, carousel_transition),
	       device_id           = COALESCE($18, device_id),
	       updated_at          = now()
	 WHERE id = $1
	 RETURNING ` + displayColumns + `;`
	err := p.db.Get(&d, q, id,
		update.Address, update.Location, update.Price, update.PriceType,
		update.Bedrooms, update.Bathrooms, update.Garage, update.PropertyType,
		update.Description, update.Features, update.ContactNumber, update.Email,
		update.SidebarColor, update.CarouselEnabled, update.CarouselDuration,
		update.CarouselTransition, update.DeviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Display{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Int("display_id", id).Msg("UpdateDisplay failed")
		return model.Display{}, err
	}
	return d, nil
}

func (p *pgStore) SetDisplayQRCode(id int, fileName string) error {
	res, err := p.db.Exec(`UPDATE displays SET qr_code_path = $2, updated_at = now() WHERE id = $1;`, id, fileName)
	if err != nil {
		log.Error().Err(err).Int("display_id", id).Msg("SetDisplayQRCode failed")
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceDisplays wipes and reloads the display table from an import dump,
// all inside a single transaction.
func (p *pgStore) ReplaceDisplays(displays []model.Display) error {
	tx, err := p.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM displays;`); err != nil {
		log.Error().Err(err).Msg("ReplaceDisplays: wipe failed")
		return err
	}

	const q = `
	INSERT INTO displays
	  (address, location, price, price_type, bedrooms, bathrooms, garage,
	   property_type, description, features, main_image, image1, image2, image3,
	   qr_code_path, company_logo, contact_number, email, sidebar_color,
	   carousel_enabled, carousel_duration, carousel_transition, device_id,
	   created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,now(),now());`
	for _, d := range displays {
		if _, err := tx.Exec(q,
			d.Address, d.Location, d.Price, d.PriceType, d.Bedrooms, d.Bathrooms,
			d.Garage, d.PropertyType, d.Description, d.Features, d.MainImage,
			d.Image1, d.Image2, d.Image3, d.QRCodePath, d.CompanyLogo,
			d.ContactNumber, d.Email, d.SidebarColor, d.CarouselEnabled,
			d.CarouselDuration, d.CarouselTransition, d.DeviceID); err != nil {
			log.Error().Err(err).Int("display_id", d.ID).Msg("ReplaceDisplays: insert failed")
			return err
		}
	}
	return tx.Commit()
}

// displayContent is the shape the admin UI serializes into a schedule's
// content_data payload. The scheduler treats the payload as opaque text;
// decoding it is this layer's job.
type displayContent struct {
	Address            *string `json:"address"`
	Location           *string `json:"location"`
	Price              *string `json:"price"`
	PriceType          *string `json:"priceType"`
	Bedrooms           *int    `json:"bedrooms"`
	Bathrooms          *int    `json:"bathrooms"`
	Garage             *int    `json:"garage"`
	PropertyType       *string `json:"propertyType"`
	Description        *string `json:"description"`
	Features           *string `json:"features"`
	ContactNumber      *string `json:"contactNumber"`
	Email              *string `json:"email"`
	SidebarColor       *string `json:"sidebarColor"`
	CarouselEnabled    *bool   `json:"carouselEnabled"`
	CarouselDuration   *int    `json:"carouselDuration"`
	CarouselTransition *string `json:"carouselTransition"`
}

// ApplyContentToDisplay copies a schedule's content payload and image paths
// onto the target display in one statement. It is the write the applier must
// see succeed before recording an execution.
func (p *pgStore) ApplyContentToDisplay(displayID int, contentData string, images []model.ScheduledImage) error {
	var content displayContent
	if err := json.Unmarshal([]byte(contentData), &content); err != nil {
		return fmt.Errorf("malformed content payload for display %d: %w", displayID, err)
	}

	var mainImage, image1, image2, image3, qrCode, companyLogo *string
	for i := range images {
		path := images[i].FilePath
		switch images[i].ImageType {
		case model.ImageTypeMain:
			mainImage = &path
		case model.ImageTypeImage1:
			image1 = &path
		case model.ImageTypeImage2:
			image2 = &path
		case model.ImageTypeImage3:
			image3 = &path
		case model.ImageTypeQRCode:
			qrCode = &path
		case model.ImageTypeCompanyLogo:
			companyLogo = &path
		}
	}

	const q = `
	UPDATE displays
	   SET address             = COALESCE($2,  address),
	       location            = COALESCE($3,  location),
	       price               = COALESCE($4,  price),
	       price_type          = COALESCE($5,  price_type),
	       bedrooms            = COALESCE($6,  bedrooms),
	       bathrooms           = COALESCE($7,  bathrooms),
	       garage              = COALESCE($8,  garage),
	       property_type       = COALESCE($9,  property_type),
	       description         = COALESCE($10, description),
	       features            = COALESCE($11, features),
	       contact_number      = COALESCE($12, contact_number),
	       email               = COALESCE($13, email),
	       sidebar_color       = COALESCE($14, sidebar_color),
	       carousel_enabled    = COALESCE($15, carousel_enabled),
	       carousel_duration   = COALESCE($16, carousel_duration),
	       carousel_transition = COALESCE($17, carousel_transition),
	       main_image          = COALESCE($18, main_image),
	       image1              = COALESCE($19, image1),
	       image2              = COALESCE($20, image2),
	       image3              = COALESCE($21, image3),
	       qr_code_path        = COALESCE($22, qr_code_path),
	       company_logo        = COALESCE($23, company_logo),
	       updated_at          = now()
	 WHERE id = $1;`
	res, err := p.db.Exec(q, displayID,
		content.Address, content.Location, content.Price, content.PriceType,
		content.Bedrooms, content.Bathrooms, content.Garage, content.PropertyType,
		content.Description, content.Features, content.ContactNumber, content.Email,
		content.SidebarColor, content.CarouselEnabled, content.CarouselDuration,
		content.CarouselTransition, mainImage, image1, image2, image3, qrCode, companyLogo)
	if err != nil {
		log.Error().Err(err).Int("display_id", displayID).Msg("ApplyContentToDisplay failed")
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
