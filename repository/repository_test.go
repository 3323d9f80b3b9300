package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arsendavydov/de-project-bibip/record"
	"github.com/arsendavydov/de-project-bibip/slot"
)

func newCarRepo(t *testing.T) *Repository[record.Car] {
	t.Helper()
	dir := t.TempDir()
	repo, err := Open(
		filepath.Join(dir, "cars.txt"),
		filepath.Join(dir, "cars_index.txt"),
		slot.NewCodec(slot.DefaultSize),
		record.CarFromFields,
	)
	require.NoError(t, err)
	return repo
}

func newSaleRepo(t *testing.T) *Repository[record.Sale] {
	t.Helper()
	dir := t.TempDir()
	repo, err := Open(
		filepath.Join(dir, "sales.txt"),
		filepath.Join(dir, "sales_index.txt"),
		slot.NewCodec(slot.DefaultSize),
		record.SaleFromFields,
	)
	require.NoError(t, err)
	return repo
}

func testCar(vin string) record.Car {
	return record.Car{
		VIN:       vin,
		ModelID:   1,
		Price:     decimal.NewFromInt(30000),
		StartDate: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		Status:    record.StatusAvailable,
	}
}

func TestRepository_InsertFind(t *testing.T) {
	repo := newCarRepo(t)

	pos, err := repo.Insert(testCar("XTA1"))
	require.NoError(t, err)
	assert.Equal(t, 0, pos)

	pos, err = repo.Insert(testCar("XTA2"))
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	got, ok, err := repo.FindByKey("XTA2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "XTA2", got.VIN)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(30000)))

	_, ok, err = repo.FindByKey("XTA9")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_Insert_TooLarge(t *testing.T) {
	dir := t.TempDir()
	repo, err := Open(
		filepath.Join(dir, "cars.txt"),
		filepath.Join(dir, "cars_index.txt"),
		slot.NewCodec(10),
		record.CarFromFields,
	)
	require.NoError(t, err)

	_, err = repo.Insert(testCar("LONG-VIN-THAT-CANNOT-FIT"))
	assert.ErrorIs(t, err, slot.ErrTooLarge)
}

func TestRepository_UpdateAt(t *testing.T) {
	repo := newCarRepo(t)

	pos, err := repo.Insert(testCar("XTA1"))
	require.NoError(t, err)

	car, err := repo.At(pos)
	require.NoError(t, err)
	car.Status = record.StatusSold
	require.NoError(t, repo.UpdateAt(pos, car))

	got, ok, err := repo.FindByKey("XTA1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record.StatusSold, got.Status)
}

func TestRepository_Rename(t *testing.T) {
	repo := newCarRepo(t)

	pos, err := repo.Insert(testCar("XTA1"))
	require.NoError(t, err)

	car, err := repo.At(pos)
	require.NoError(t, err)
	car.VIN = "XTA2"
	require.NoError(t, repo.UpdateAt(pos, car))
	require.NoError(t, repo.Rename("XTA1", "XTA2"))

	got, ok, err := repo.FindByKey("XTA2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "XTA2", got.VIN)

	_, ok, err = repo.FindByKey("XTA1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_ReplaceAll(t *testing.T) {
	repo := newSaleRepo(t)

	sale := record.Sale{
		SalesNumber: "S1",
		CarVIN:      "XTA1",
		Cost:        decimal.NewFromInt(31000),
		SaleDate:    time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := repo.Insert(sale)
	require.NoError(t, err)

	sale.Deleted = true
	require.NoError(t, repo.ReplaceAll([]record.Sale{sale}))

	got, ok, err := repo.FindByKey("S1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Deleted)
}

func TestRepository_All(t *testing.T) {
	repo := newCarRepo(t)
	for _, vin := range []string{"A", "B", "C"} {
		_, err := repo.Insert(testCar(vin))
		require.NoError(t, err)
	}

	var vins []string
	for pos, car := range repo.All() {
		assert.Equal(t, len(vins), pos)
		vins = append(vins, car.VIN)
	}
	assert.Equal(t, []string{"A", "B", "C"}, vins)
}

func TestRepository_DuplicateKeys_FirstWins(t *testing.T) {
	repo := newCarRepo(t)

	first := testCar("XTA1")
	_, err := repo.Insert(first)
	require.NoError(t, err)

	second := testCar("XTA1")
	second.ModelID = 2
	_, err = repo.Insert(second)
	require.NoError(t, err)

	got, ok, err := repo.FindByKey("XTA1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), got.ModelID, "the earlier record wins lookups")
}
