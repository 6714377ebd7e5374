package model

import (
	"encoding/json"

	"gorm.io/datatypes"

	"planmark/pkg/core"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&MarkerRow{},
}

// MarkerRow is the persisted form of a defect marker. The ID is the
// creation timestamp in unix milliseconds, assigned by the caller, so
// autoincrement is disabled.
type MarkerRow struct {
	ID          int64   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	PhotoURL    string  `gorm:"size:255" json:"photoUrl"`
	TextValue   string  `gorm:"size:2000" json:"textValue"`
	DrawingData string  `json:"drawingData"`
	CreatedAt   int64   `json:"createdAt"`
	DefectType  string  `gorm:"size:64" json:"defectType"`
	Metrics     datatypes.JSON
}

func (*MarkerRow) TableName() string {
	return "markers"
}

// FromCore converts a domain marker to its database row.
func FromCore(m core.Marker) (MarkerRow, error) {
	row := MarkerRow{
		ID:          m.ID,
		X:           m.X,
		Y:           m.Y,
		PhotoURL:    m.PhotoURL,
		TextValue:   m.TextValue,
		DrawingData: m.DrawingData,
		CreatedAt:   m.CreatedAt,
		DefectType:  m.DefectType,
	}
	if len(m.Metrics) > 0 {
		raw, err := json.Marshal(m.Metrics)
		if err != nil {
			return MarkerRow{}, err
		}
		row.Metrics = datatypes.JSON(raw)
	}
	return row, nil
}

// ToCore converts a database row back to a domain marker.
func ToCore(row MarkerRow) (core.Marker, error) {
	m := core.Marker{
		ID:          row.ID,
		X:           row.X,
		Y:           row.Y,
		PhotoURL:    row.PhotoURL,
		TextValue:   row.TextValue,
		DrawingData: row.DrawingData,
		CreatedAt:   row.CreatedAt,
		DefectType:  row.DefectType,
	}
	if len(row.Metrics) > 0 {
		if err := json.Unmarshal(row.Metrics, &m.Metrics); err != nil {
			return core.Marker{}, err
		}
	}
	return m, nil
}
