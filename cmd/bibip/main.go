// Command bibip is an interactive shell over the dealership ledger.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	bibip "github.com/arsendavydov/de-project-bibip"
	"github.com/arsendavydov/de-project-bibip/record"
)

func main() {
	defaultDir := os.Getenv("BIBIP_DIR")
	if defaultDir == "" {
		defaultDir = "./bibip-data"
	}
	dir := flag.String("dir", defaultDir, "ledger data directory")
	verbose := flag.Bool("v", false, "log operations to stderr")
	flag.Parse()

	opts := []bibip.Option{}
	if *verbose {
		opts = append(opts, bibip.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))))
	}

	ledger, err := bibip.Open(*dir, opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open error:", err)
		os.Exit(1)
	}

	fmt.Print(`bibip ledger ready.
Commands:
  ADD_MODEL(id,name,brand)
  ADD_CAR(vin,model_id,price,start_date)
  SELL(vin,cost,date)            // sale number is minted
  SELL(number,vin,cost,date)
  CARS(status)
  INFO(vin)
  RENAME(old_vin,new_vin)
  REVERT(sale_number)
  TOP()
  EXIT
`)

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		cmd, args, err := parseCall(line)
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}
		if cmd == "EXIT" || cmd == "QUIT" {
			return
		}
		if err := run(ledger, cmd, args); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func run(ledger *bibip.Ledger, cmd string, args []string) error {
	switch cmd {
	case "ADD_MODEL":
		if len(args) != 3 {
			return errors.New("usage: ADD_MODEL(id,name,brand)")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bad model id %q", args[0])
		}
		m, err := ledger.AddModel(record.Model{ID: id, Name: args[1], Brand: args[2]})
		if err != nil {
			return err
		}
		fmt.Printf("model %d: %s %s\n", m.ID, m.Brand, m.Name)

	case "ADD_CAR":
		if len(args) != 4 {
			return errors.New("usage: ADD_CAR(vin,model_id,price,start_date)")
		}
		modelID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad model id %q", args[1])
		}
		price, err := decimal.NewFromString(args[2])
		if err != nil {
			return fmt.Errorf("bad price %q", args[2])
		}
		start, err := time.Parse(record.DateLayout, args[3])
		if err != nil {
			return fmt.Errorf("bad date %q, want YYYY-MM-DD", args[3])
		}
		c, err := ledger.AddCar(record.Car{
			VIN:       args[0],
			ModelID:   modelID,
			Price:     price,
			StartDate: start,
			Status:    record.StatusAvailable,
		})
		if err != nil {
			return err
		}
		fmt.Printf("car %s: model %d, %s\n", c.VIN, c.ModelID, c.Price)

	case "SELL":
		if len(args) == 3 {
			// Mint a sale number when the operator does not supply one.
			args = append([]string{uuid.NewString()}, args...)
		}
		if len(args) != 4 {
			return errors.New("usage: SELL(vin,cost,date) or SELL(number,vin,cost,date)")
		}
		cost, err := decimal.NewFromString(args[2])
		if err != nil {
			return fmt.Errorf("bad cost %q", args[2])
		}
		date, err := time.Parse(record.DateLayout, args[3])
		if err != nil {
			return fmt.Errorf("bad date %q, want YYYY-MM-DD", args[3])
		}
		car, err := ledger.SellCar(record.Sale{
			SalesNumber: args[0],
			CarVIN:      args[1],
			Cost:        cost,
			SaleDate:    date,
		})
		if err != nil {
			return err
		}
		fmt.Printf("sold %s (sale %s)\n", car.VIN, args[0])

	case "CARS":
		if len(args) != 1 {
			return errors.New("usage: CARS(status)")
		}
		cars, err := ledger.Cars(record.CarStatus(args[0]))
		if err != nil {
			return err
		}
		for _, c := range cars {
			fmt.Printf("%s  model=%d  price=%s  since=%s\n",
				c.VIN, c.ModelID, c.Price, c.StartDate.Format(record.DateLayout))
		}
		fmt.Printf("(%d cars)\n", len(cars))

	case "INFO":
		if len(args) != 1 {
			return errors.New("usage: INFO(vin)")
		}
		info, ok, err := ledger.CarInfo(args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("(not found)")
			return nil
		}
		fmt.Printf("%s  %s %s  price=%s  since=%s  status=%s\n",
			info.VIN, info.CarModelBrand, info.CarModelName,
			info.Price, info.DateStart.Format(record.DateLayout), info.Status)
		if info.SalesDate != nil {
			fmt.Printf("sold on %s for %s\n",
				info.SalesDate.Format(record.DateLayout), info.SalesCost)
		}

	case "RENAME":
		if len(args) != 2 {
			return errors.New("usage: RENAME(old_vin,new_vin)")
		}
		car, err := ledger.UpdateVIN(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("renamed to %s\n", car.VIN)

	case "REVERT":
		if len(args) != 1 {
			return errors.New("usage: REVERT(sale_number)")
		}
		car, err := ledger.RevertSale(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("reverted, %s is %s again\n", car.VIN, car.Status)

	case "TOP":
		top, err := ledger.TopModels()
		if err != nil {
			return err
		}
		for i, st := range top {
			fmt.Printf("%d. %s %s — %d sales\n", i+1, st.Brand, st.CarModelName, st.SalesCount)
		}
		if len(top) == 0 {
			fmt.Println("(no sales)")
		}

	default:
		return fmt.Errorf("unknown command %s", cmd)
	}
	return nil
}

// parseCall parses lines like ADD_MODEL(1,Model3,Tesla). EXIT and QUIT are
// accepted without parentheses. Arguments may not contain commas.
func parseCall(line string) (string, []string, error) {
	up := strings.ToUpper(strings.TrimSpace(line))
	if up == "EXIT" || up == "QUIT" {
		return up, nil, nil
	}

	open := strings.IndexByte(line, '(')
	close := strings.LastIndexByte(line, ')')
	if open <= 0 || close < open {
		return "", nil, errors.New("expected CMD(arg1,arg2,...)")
	}

	cmd := strings.ToUpper(strings.TrimSpace(line[:open]))
	inside := strings.TrimSpace(line[open+1 : close])
	if inside == "" {
		return cmd, nil, nil
	}

	parts := strings.Split(inside, ",")
	args := make([]string, 0, len(parts))
	for _, p := range parts {
		args = append(args, strings.TrimSpace(p))
	}
	return cmd, args, nil
}
