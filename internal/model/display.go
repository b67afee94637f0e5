package model

import "time"

// Display represents one of the signage slots showing a property listing.
type Display struct {
	ID                 int       `db:"id"                  json:"id"`
	Address            *string   `db:"address"             json:"address"`
	Location           *string   `db:"location"            json:"location"`
	Price              *string   `db:"price"               json:"price"`
	PriceType          *string   `db:"price_type"          json:"price_type"`
	Bedrooms           *int      `db:"bedrooms"            json:"bedrooms"`
	Bathrooms          *int      `db:"bathrooms"           json:"bathrooms"`
	Garage             *int      `db:"garage"              json:"garage"`
	PropertyType       *string   `db:"property_type"       json:"property_type"`
	Description        *string   `db:"description"         json:"description"`
	Features           *string   `db:"features"            json:"features"`
	MainImage          *string   `db:"main_image"          json:"main_image"`
	Image1             *string   `db:"image1"              json:"image1"`
	Image2             *string   `db:"image2"              json:"image2"`
	Image3             *string   `db:"image3"              json:"image3"`
	QRCodePath         *string   `db:"qr_code_path"        json:"qr_code_path"`
	CompanyLogo        *string   `db:"company_logo"        json:"company_logo"`
	ContactNumber      *string   `db:"contact_number"      json:"contact_number"`
	Email              *string   `db:"email"               json:"email"`
	SidebarColor       *string   `db:"sidebar_color"       json:"sidebar_color"`
	CarouselEnabled    bool      `db:"carousel_enabled"    json:"carousel_enabled"`
	CarouselDuration   int       `db:"carousel_duration"   json:"carousel_duration"`
	CarouselTransition *string   `db:"carousel_transition" json:"carousel_transition"`
	DeviceID           *string   `db:"device_id"           json:"device_id"`
	CreatedAt          time.Time `db:"created_at"          json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"          json:"updated_at"`
}
