// Package bibip is an embedded record store for a vehicle-dealership
// ledger. It persists vehicle models, cars and sale transactions in
// fixed-slot flat files with one key→position index file per store, and
// exposes the dealership operations on top: adding models and cars, selling
// and reverting sales, status queries, VIN renames and a top-selling-models
// report.
//
// Basic usage:
//
//	ledger, err := bibip.Open("./data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ledger.AddModel(record.Model{ID: 1, Name: "Model3", Brand: "Tesla"})
//	ledger.AddCar(record.Car{
//	    VIN:       "XTA1",
//	    ModelID:   1,
//	    Price:     decimal.NewFromInt(30000),
//	    StartDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
//	    Status:    record.StatusAvailable,
//	})
//
// All operations are synchronous, open and close their backing files per
// call, and assume exactly one writer process. There is no file locking and
// no atomicity across a data-file/index-file pair: a crash between the two
// writes leaves them inconsistent.
package bibip
