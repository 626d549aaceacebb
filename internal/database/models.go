package database

import (
	"time"
)

// Location is a place weather is collected for and models are attached to.
type Location struct {
	ID        int       `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Latitude  float64   `gorm:"column:latitude" json:"latitude"`
	Longitude float64   `gorm:"column:longitude" json:"longitude"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for Location
func (Location) TableName() string {
	return "locations"
}

// DailyWeather is one day of weather for a location, written by the
// external weather provider. This service only reads it.
type DailyWeather struct {
	ID               int       `gorm:"primaryKey;autoIncrement;column:id"`
	LocationID       int       `gorm:"column:location_id;not null;index:idx_weather_location_date,unique"`
	Date             time.Time `gorm:"column:date;not null;index:idx_weather_location_date,unique"`
	Type             string    `gorm:"column:type;not null;default:historical"` // historical or forecast
	TemperatureMaxC  *float64  `gorm:"column:temperature_max_c"`
	TemperatureMinC  *float64  `gorm:"column:temperature_min_c"`
	TemperatureMaxF  *float64  `gorm:"column:temperature_max_f"`
	TemperatureMinF  *float64  `gorm:"column:temperature_min_f"`
}

// TableName specifies the table name for DailyWeather
func (DailyWeather) TableName() string {
	return "daily_weather"
}

// GDDModel is a growing-degree-day model. The base_temp/threshold/
// reset_on_threshold columns mirror the latest parameter version for
// display; computation resolves parameters through gdd_model_parameters.
type GDDModel struct {
	ID               int       `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	LocationID       int       `gorm:"column:location_id;not null;index:idx_gdd_location_name,unique" json:"location_id"`
	Name             string    `gorm:"column:name;size:100;not null;index:idx_gdd_location_name,unique" json:"name"`
	BaseTemp         float64   `gorm:"column:base_temp;not null" json:"base_temp"`
	Unit             string    `gorm:"column:unit;not null" json:"unit"`
	StartDate        time.Time `gorm:"column:start_date;not null" json:"start_date"`
	Threshold        float64   `gorm:"column:threshold;not null" json:"threshold"`
	ResetOnThreshold bool      `gorm:"column:reset_on_threshold;not null;default:false" json:"reset_on_threshold"`
	CreatedAt        time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName specifies the table name for GDDModel
func (GDDModel) TableName() string {
	return "gdd_models"
}

// GDDModelParameters is one parameter version, effective from
// effective_from until superseded. Rows are never deleted.
type GDDModelParameters struct {
	ID               int       `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	GDDModelID       int       `gorm:"column:gdd_model_id;not null;index:idx_params_model_effective,unique" json:"gdd_model_id"`
	BaseTemp         float64   `gorm:"column:base_temp;not null" json:"base_temp"`
	Threshold        float64   `gorm:"column:threshold;not null" json:"threshold"`
	ResetOnThreshold bool      `gorm:"column:reset_on_threshold;not null" json:"reset_on_threshold"`
	EffectiveFrom    time.Time `gorm:"column:effective_from;not null;index:idx_params_model_effective,unique" json:"effective_from"`
	CreatedAt        time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for GDDModelParameters
func (GDDModelParameters) TableName() string {
	return "gdd_model_parameters"
}

// GDDValue is one computed day. The full set is replaced on every
// recompute; rows are never edited in place.
type GDDValue struct {
	ID            int       `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	GDDModelID    int       `gorm:"column:gdd_model_id;not null;index:idx_values_model_date,unique" json:"gdd_model_id"`
	Date          time.Time `gorm:"column:date;not null;index:idx_values_model_date,unique" json:"date"`
	DailyGDD      float64   `gorm:"column:daily_gdd;not null" json:"daily_gdd"`
	CumulativeGDD float64   `gorm:"column:cumulative_gdd;not null" json:"cumulative_gdd"`
	IsForecast    bool      `gorm:"column:is_forecast;not null;default:false" json:"is_forecast"`
	Run           int       `gorm:"column:run;not null;default:1" json:"run"`
}

// TableName specifies the table name for GDDValue
func (GDDValue) TableName() string {
	return "gdd_values"
}

// GDDReset is a run boundary: initial (start date), manual (user action),
// or threshold (regenerated on every recompute).
type GDDReset struct {
	ID         int       `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	GDDModelID int       `gorm:"column:gdd_model_id;not null;index:idx_resets_model_date,unique" json:"gdd_model_id"`
	ResetDate  time.Time `gorm:"column:reset_date;not null;index:idx_resets_model_date,unique" json:"reset_date"`
	RunNumber  int       `gorm:"column:run_number;not null" json:"run_number"`
	ResetType  string    `gorm:"column:reset_type;not null" json:"reset_type"`
	CreatedAt  time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for GDDReset
func (GDDReset) TableName() string {
	return "gdd_resets"
}
