package bibip

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/arsendavydov/de-project-bibip/record"
	"github.com/arsendavydov/de-project-bibip/repository"
)

// Typed errors raised by mutating operations. Read-only queries degrade to
// an absent result instead of returning these.
var (
	ErrCarNotFound  = errors.New("bibip: car not found")
	ErrSaleNotFound = errors.New("bibip: sale not found")
)

// Per-entity file names under the root directory, one data/index pair each.
const (
	carsFile        = "cars.txt"
	carsIndexFile   = "cars_index.txt"
	modelsFile      = "models.txt"
	modelsIndexFile = "models_index.txt"
	salesFile       = "sales.txt"
	salesIndexFile  = "sales_index.txt"
)

// topModelCount is how many models the top-sellers report returns.
const topModelCount = 3

// Ledger is the dealership ledger service. It owns one repository per
// entity kind and implements the eight public operations on top of them.
// All I/O is synchronous and assumes a single writer process.
type Ledger struct {
	models *repository.Repository[record.Model]
	cars   *repository.Repository[record.Car]
	sales  *repository.Repository[record.Sale]
	log    *slog.Logger
}

// Open creates the root directory and the six backing files if needed and
// returns a ledger over them.
func Open(rootDir string, opts ...Option) (*Ledger, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("bibip: create root directory: %w", err)
	}

	models, err := repository.Open(
		filepath.Join(rootDir, modelsFile),
		filepath.Join(rootDir, modelsIndexFile),
		o.codec, record.ModelFromFields,
	)
	if err != nil {
		return nil, err
	}
	cars, err := repository.Open(
		filepath.Join(rootDir, carsFile),
		filepath.Join(rootDir, carsIndexFile),
		o.codec, record.CarFromFields,
	)
	if err != nil {
		return nil, err
	}
	sales, err := repository.Open(
		filepath.Join(rootDir, salesFile),
		filepath.Join(rootDir, salesIndexFile),
		o.codec, record.SaleFromFields,
	)
	if err != nil {
		return nil, err
	}

	return &Ledger{models: models, cars: cars, sales: sales, log: o.logger}, nil
}

// AddModel stores a new vehicle model and returns it unchanged. Duplicate
// model ids are not rejected; lookups keep resolving to the first one.
func (l *Ledger) AddModel(m record.Model) (record.Model, error) {
	pos, err := l.models.Insert(m)
	if err != nil {
		return record.Model{}, err
	}
	l.log.Info("model added", "id", m.ID, "name", m.Name, "position", pos)
	return m, nil
}

// AddCar stores a new car keyed by VIN. The model id is not checked against
// the model store.
func (l *Ledger) AddCar(c record.Car) (record.Car, error) {
	pos, err := l.cars.Insert(c)
	if err != nil {
		return record.Car{}, err
	}
	l.log.Info("car added", "vin", c.VIN, "model", c.ModelID, "position", pos)
	return c, nil
}

// SellCar records a sale and flips the referenced car's status to sold,
// returning the updated car. It fails with ErrCarNotFound if the sale's VIN
// is unknown. A car that is already sold is not rejected.
func (l *Ledger) SellCar(sale record.Sale) (record.Car, error) {
	if _, err := l.sales.Insert(sale); err != nil {
		return record.Car{}, err
	}

	pos, ok := l.cars.PositionOf(sale.CarVIN)
	if !ok {
		return record.Car{}, fmt.Errorf("%w: vin %s", ErrCarNotFound, sale.CarVIN)
	}
	car, err := l.cars.At(pos)
	if err != nil {
		return record.Car{}, err
	}
	car.Status = record.StatusSold
	if err := l.cars.UpdateAt(pos, car); err != nil {
		return record.Car{}, err
	}
	l.log.Info("car sold", "vin", car.VIN, "sale", sale.SalesNumber)
	return car, nil
}

// Cars returns every car with the given status, in insertion order.
func (l *Ledger) Cars(status record.CarStatus) ([]record.Car, error) {
	var cars []record.Car
	for _, car := range l.cars.All() {
		if car.Status == status {
			cars = append(cars, car)
		}
	}
	l.log.Debug("cars listed", "status", status, "count", len(cars))
	return cars, nil
}

// CarInfo returns the joined car/model/sale view for a VIN. The second
// return value is false when the car or its model cannot be resolved; an
// unresolved reference is not an error here.
func (l *Ledger) CarInfo(vin string) (record.CarFullInfo, bool, error) {
	car, ok, err := l.cars.FindByKey(vin)
	if err != nil {
		return record.CarFullInfo{}, false, err
	}
	if !ok {
		return record.CarFullInfo{}, false, nil
	}
	model, ok, err := l.models.FindByKey(strconv.FormatInt(car.ModelID, 10))
	if err != nil {
		return record.CarFullInfo{}, false, err
	}
	if !ok {
		return record.CarFullInfo{}, false, nil
	}

	info := record.CarFullInfo{
		VIN:           car.VIN,
		CarModelName:  model.Name,
		CarModelBrand: model.Brand,
		Price:         car.Price,
		DateStart:     car.StartDate,
		Status:        car.Status,
	}
	if car.Status == record.StatusSold {
		for _, sale := range l.sales.All() {
			if sale.Deleted || sale.CarVIN != vin {
				continue
			}
			date, cost := sale.SaleDate, sale.Cost
			info.SalesDate = &date
			info.SalesCost = &cost
			break
		}
	}
	return info, true, nil
}

// UpdateVIN rekeys a car from oldVIN to newVIN, rewriting the car slot in
// place and re-sorting the car index. Historical sales keep the old VIN
// string. Fails with ErrCarNotFound if oldVIN is unknown.
func (l *Ledger) UpdateVIN(oldVIN, newVIN string) (record.Car, error) {
	pos, ok := l.cars.PositionOf(oldVIN)
	if !ok {
		return record.Car{}, fmt.Errorf("%w: vin %s", ErrCarNotFound, oldVIN)
	}
	car, err := l.cars.At(pos)
	if err != nil {
		return record.Car{}, err
	}
	car.VIN = newVIN
	if err := l.cars.UpdateAt(pos, car); err != nil {
		return record.Car{}, err
	}
	if err := l.cars.Rename(oldVIN, newVIN); err != nil {
		return record.Car{}, err
	}
	l.log.Info("vin updated", "old", oldVIN, "new", newVIN)
	return car, nil
}

// RevertSale marks the sale with the given number as deleted, rewrites the
// whole sales file and forces the referenced car back to available. A sale
// that is already reverted is a no-op on the marker but still rewrites the
// file and resets the car. Fails with ErrSaleNotFound when no sale matches
// and ErrCarNotFound when the sale's VIN no longer resolves.
func (l *Ledger) RevertSale(salesNumber string) (record.Car, error) {
	var sales []record.Sale
	for _, sale := range l.sales.All() {
		sales = append(sales, sale)
	}

	at := slices.IndexFunc(sales, func(s record.Sale) bool {
		return s.SalesNumber == salesNumber
	})
	if at < 0 {
		return record.Car{}, fmt.Errorf("%w: %s", ErrSaleNotFound, salesNumber)
	}
	sales[at].Deleted = true
	if err := l.sales.ReplaceAll(sales); err != nil {
		return record.Car{}, err
	}

	vin := sales[at].CarVIN
	pos, ok := l.cars.PositionOf(vin)
	if !ok {
		return record.Car{}, fmt.Errorf("%w: vin %s", ErrCarNotFound, vin)
	}
	car, err := l.cars.At(pos)
	if err != nil {
		return record.Car{}, err
	}
	car.Status = record.StatusAvailable
	if err := l.cars.UpdateAt(pos, car); err != nil {
		return record.Car{}, err
	}
	l.log.Info("sale reverted", "sale", salesNumber, "vin", vin)
	return car, nil
}

// modelStats accumulates per-model sale totals for the top-sellers report.
type modelStats struct {
	model record.Model
	count int64
	sum   decimal.Decimal
}

// TopModels returns up to three models ranked by descending sale count,
// with descending mean sale cost as the tie-break. Reverted sales and sales
// whose car or model no longer resolves are skipped. Returns an empty slice
// when there are no countable sales.
func (l *Ledger) TopModels() ([]record.ModelSaleStats, error) {
	byModel := map[int64]*modelStats{}
	var order []int64

	for _, sale := range l.sales.All() {
		if sale.Deleted {
			continue
		}
		car, ok, err := l.cars.FindByKey(sale.CarVIN)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		st := byModel[car.ModelID]
		if st == nil {
			model, ok, err := l.models.FindByKey(strconv.FormatInt(car.ModelID, 10))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			st = &modelStats{model: model}
			byModel[car.ModelID] = st
			order = append(order, car.ModelID)
		}
		st.count++
		st.sum = st.sum.Add(sale.Cost)
	}

	ranked := make([]*modelStats, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, byModel[id])
	}
	slices.SortStableFunc(ranked, func(a, b *modelStats) int {
		if a.count != b.count {
			if a.count > b.count {
				return -1
			}
			return 1
		}
		// Mean cost comparison without dividing: a.sum/a.count vs
		// b.sum/b.count cross-multiplied, counts are positive.
		left := a.sum.Mul(decimal.NewFromInt(b.count))
		right := b.sum.Mul(decimal.NewFromInt(a.count))
		return right.Cmp(left)
	})

	top := make([]record.ModelSaleStats, 0, topModelCount)
	for _, st := range ranked[:min(len(ranked), topModelCount)] {
		top = append(top, record.ModelSaleStats{
			CarModelName: st.model.Name,
			Brand:        st.model.Brand,
			SalesCount:   st.count,
		})
	}
	return top, nil
}
