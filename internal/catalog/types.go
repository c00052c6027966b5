// Package catalog defines the auto-parts catalog records, the storage contract
// the import pipeline writes through, and the error taxonomy shared by the
// importer, exporter, backup coordinator and their HTTP and CLI surfaces.
package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entity identifies which catalog table an import, export or backup targets.
type Entity string

const (
	EntitySpareParts Entity = "spare_parts"
	EntityCarModels  Entity = "car_models"
)

// Entities lists every entity in a stable order.
var Entities = []Entity{EntitySpareParts, EntityCarModels}

// ParseEntity accepts the canonical names plus the short forms used on the
// command line and in URLs ("parts", "models").
func ParseEntity(s string) (Entity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spare_parts", "spare-parts", "parts":
		return EntitySpareParts, nil
	case "car_models", "car-models", "models":
		return EntityCarModels, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
}

func (e Entity) String() string { return string(e) }

// SparePart is a catalog part keyed by (Manufacturer, PartNumber).
type SparePart struct {
	ID            int64
	Manufacturer  string
	PartNumber    string
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	Available     bool
	Active        bool
	Weight        decimal.NullDecimal
	Dimensions    string
	CategoryID    *int64
	Image         string
}

// SetStock updates the quantity and keeps Available consistent with it.
func (p *SparePart) SetStock(qty int) {
	p.StockQuantity = qty
	p.Available = qty > 0
}

// CarBrand is a vehicle make, unique by exact Name.
type CarBrand struct {
	ID      int64
	Name    string
	Slug    string
	Country string
	Popular bool
}

// CarModel is a vehicle model, unique by (Name, BrandID).
//
// BrandName and BrandCountry are populated by list queries only.
type CarModel struct {
	ID          int64
	BrandID     int64
	Name        string
	Slug        string
	YearStart   int // 0 means unknown
	YearEnd     int // 0 means still produced
	Description string
	Popular     bool

	BrandName    string
	BrandCountry string
}

// ImportStats aggregates the outcome of one import run.
type ImportStats struct {
	Processed     int `json:"processed"`
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	Skipped       int `json:"skipped"`
	BrandsCreated int `json:"brands_created"`
	Errors        int `json:"errors"`
}

func (s ImportStats) String() string {
	return fmt.Sprintf("processed=%d created=%d updated=%d skipped=%d brands_created=%d errors=%d",
		s.Processed, s.Created, s.Updated, s.Skipped, s.BrandsCreated, s.Errors)
}

// ExportFilter narrows an export. Nil and empty fields do not filter.
type ExportFilter struct {
	CategoryID   *int64
	Manufacturer string // case-insensitive substring
	BrandID      *int64
	Popular      *bool
}

// BackupArtifact describes a snapshot written before an import.
type BackupArtifact struct {
	Entity    Entity    `json:"entity"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	RemoteKey string    `json:"remote_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RunStatus is the lifecycle state of a recorded import.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ImportRun is the history record of one import.
type ImportRun struct {
	ID             uuid.UUID   `json:"id"`
	Entity         Entity      `json:"entity"`
	FileName       string      `json:"file_name"`
	Checksum       string      `json:"checksum"`
	UpdateExisting bool        `json:"update_existing"`
	BackupPath     string      `json:"backup_path,omitempty"`
	Status         RunStatus   `json:"status"`
	Stats          ImportStats `json:"stats"`
	Error          string      `json:"error,omitempty"`
	StartedAt      time.Time   `json:"started_at"`
	FinishedAt     *time.Time  `json:"finished_at,omitempty"`
}
