// Package record defines the domain value objects of the dealership ledger
// and their mapping to slot fields: vehicle models, cars in inventory and
// sale transactions.
package record

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arsendavydov/de-project-bibip/slot"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// deletedMarker is the trailing field appended to a reverted sale row.
const deletedMarker = "deleted"

// CarStatus is the lifecycle state of a car in inventory.
type CarStatus string

const (
	StatusAvailable CarStatus = "available"
	StatusSold      CarStatus = "sold"
	StatusReserved  CarStatus = "reserved"
	StatusInRepair  CarStatus = "in_repair"
)

// Model is a vehicle model. Immutable once stored.
type Model struct {
	ID    int64
	Name  string
	Brand string
}

// Key returns the business key of the model.
func (m Model) Key() string { return strconv.FormatInt(m.ID, 10) }

// Fields returns the slot fields of the model in wire order.
func (m Model) Fields() []string {
	return []string{strconv.FormatInt(m.ID, 10), m.Name, m.Brand}
}

// ModelFromFields reconstructs a Model from decoded slot fields.
func ModelFromFields(fields []string) (Model, error) {
	if len(fields) != 3 {
		return Model{}, fmt.Errorf("%w: model row has %d fields, want 3", slot.ErrCorrupt, len(fields))
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Model{}, fmt.Errorf("%w: model id %q: %v", slot.ErrCorrupt, fields[0], err)
	}
	return Model{ID: id, Name: fields[1], Brand: fields[2]}, nil
}

// Car is a vehicle in inventory. The VIN is the business key; it is the only
// key in the system that can be renamed. Cars are mutated in place and never
// removed.
type Car struct {
	VIN       string
	ModelID   int64
	Price     decimal.Decimal
	StartDate time.Time
	Status    CarStatus
}

// Key returns the business key of the car.
func (c Car) Key() string { return c.VIN }

// Fields returns the slot fields of the car in wire order.
func (c Car) Fields() []string {
	return []string{
		c.VIN,
		strconv.FormatInt(c.ModelID, 10),
		c.Price.String(),
		c.StartDate.Format(DateLayout),
		string(c.Status),
	}
}

// CarFromFields reconstructs a Car from decoded slot fields.
func CarFromFields(fields []string) (Car, error) {
	if len(fields) != 5 {
		return Car{}, fmt.Errorf("%w: car row has %d fields, want 5", slot.ErrCorrupt, len(fields))
	}
	modelID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Car{}, fmt.Errorf("%w: car model id %q: %v", slot.ErrCorrupt, fields[1], err)
	}
	price, err := decimal.NewFromString(fields[2])
	if err != nil {
		return Car{}, fmt.Errorf("%w: car price %q: %v", slot.ErrCorrupt, fields[2], err)
	}
	start, err := time.Parse(DateLayout, fields[3])
	if err != nil {
		return Car{}, fmt.Errorf("%w: car start date %q: %v", slot.ErrCorrupt, fields[3], err)
	}
	return Car{
		VIN:       fields[0],
		ModelID:   modelID,
		Price:     price,
		StartDate: start,
		Status:    CarStatus(fields[4]),
	}, nil
}

// Sale is one sale transaction. The car VIN is a snapshot taken at sale time
// and is not repointed when the car's VIN is renamed later. A reverted sale
// stays in the file with Deleted set.
type Sale struct {
	SalesNumber string
	CarVIN      string
	Cost        decimal.Decimal
	SaleDate    time.Time
	Deleted     bool
}

// Key returns the business key of the sale.
func (s Sale) Key() string { return s.SalesNumber }

// Fields returns the slot fields of the sale in wire order. Reverted sales
// carry a trailing deletion marker field.
func (s Sale) Fields() []string {
	fields := []string{
		s.SalesNumber,
		s.CarVIN,
		s.Cost.String(),
		s.SaleDate.Format(DateLayout),
	}
	if s.Deleted {
		fields = append(fields, deletedMarker)
	}
	return fields
}

// SaleFromFields reconstructs a Sale from decoded slot fields.
func SaleFromFields(fields []string) (Sale, error) {
	if len(fields) != 4 && len(fields) != 5 {
		return Sale{}, fmt.Errorf("%w: sale row has %d fields, want 4 or 5", slot.ErrCorrupt, len(fields))
	}
	cost, err := decimal.NewFromString(fields[2])
	if err != nil {
		return Sale{}, fmt.Errorf("%w: sale cost %q: %v", slot.ErrCorrupt, fields[2], err)
	}
	date, err := time.Parse(DateLayout, fields[3])
	if err != nil {
		return Sale{}, fmt.Errorf("%w: sale date %q: %v", slot.ErrCorrupt, fields[3], err)
	}
	sale := Sale{
		SalesNumber: fields[0],
		CarVIN:      fields[1],
		Cost:        cost,
		SaleDate:    date,
	}
	if len(fields) == 5 {
		if fields[4] != deletedMarker {
			return Sale{}, fmt.Errorf("%w: sale trailing field %q", slot.ErrCorrupt, fields[4])
		}
		sale.Deleted = true
	}
	return sale, nil
}

// CarFullInfo is the joined view of a car, its model and, for sold cars, the
// active sale. SalesDate and SalesCost are nil while the car is unsold.
type CarFullInfo struct {
	VIN           string
	CarModelName  string
	CarModelBrand string
	Price         decimal.Decimal
	DateStart     time.Time
	Status        CarStatus
	SalesDate     *time.Time
	SalesCost     *decimal.Decimal
}

// ModelSaleStats is one row of the top-selling-models report.
type ModelSaleStats struct {
	CarModelName string
	Brand        string
	SalesCount   int64
}
