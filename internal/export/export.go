// Package export flattens CRM records to CSV and JSON field lists and reads
// them back. Imports are validated only by the presence of the expected
// header columns; no type or schema validation beyond that.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"shopcrm/internal/model"
)

// Exported column orders. The first row of every CSV export is this header.
var (
	CustomerColumns  = []string{"first_name", "last_name", "email", "phone", "address", "notes"}
	VehicleColumns   = []string{"customer_id", "year", "make", "model", "vin", "license_plate", "mileage"}
	WorkOrderColumns = []string{"customer_id", "vehicle_id", "status", "service_type", "description", "priority", "total", "created_at"}
)

// WriteCustomersCSV writes customers as CSV with a header row
func WriteCustomersCSV(w io.Writer, customers []model.Customer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CustomerColumns); err != nil {
		return err
	}
	for _, c := range customers {
		row := []string{c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.Notes}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteVehiclesCSV writes vehicles as CSV with a header row
func WriteVehiclesCSV(w io.Writer, vehicles []model.Vehicle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(VehicleColumns); err != nil {
		return err
	}
	for _, v := range vehicles {
		row := []string{
			strconv.FormatUint(uint64(v.CustomerID), 10),
			strconv.Itoa(v.Year),
			v.Make, v.Model, v.VIN, v.LicensePlate,
			strconv.Itoa(v.Mileage),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWorkOrdersCSV writes work orders as CSV with a header row
func WriteWorkOrdersCSV(w io.Writer, orders []model.WorkOrder) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(WorkOrderColumns); err != nil {
		return err
	}
	for _, o := range orders {
		row := []string{
			strconv.FormatUint(uint64(o.CustomerID), 10),
			strconv.FormatUint(uint64(o.VehicleID), 10),
			o.Status, o.ServiceType, o.Description, o.Priority,
			strconv.FormatFloat(o.Total, 'f', 2, 64),
			o.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// headerIndex validates that every expected column is present and maps
// column name to position. Extra columns are ignored.
func headerIndex(header, expected []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}
	for _, col := range expected {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	return idx, nil
}

// RowError reports a single bad row without aborting the import
type RowError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

// ReadCustomersCSV parses a customer CSV import. The tenant id is forced from
// the caller's context, never taken from the file.
func ReadCustomersCSV(r io.Reader, tenantID uint) ([]model.Customer, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}
	idx, err := headerIndex(header, CustomerColumns)
	if err != nil {
		return nil, nil, err
	}

	var customers []model.Customer
	var rowErrs []RowError
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err.Error()})
			continue
		}
		field := func(name string) string {
			if i := idx[name]; i < len(record) {
				return record[i]
			}
			return ""
		}
		if field("first_name") == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Err: "first_name is required"})
			continue
		}
		customers = append(customers, model.Customer{
			TenantID:  tenantID,
			FirstName: field("first_name"),
			LastName:  field("last_name"),
			Email:     field("email"),
			Phone:     field("phone"),
			Address:   field("address"),
			Notes:     field("notes"),
		})
	}
	return customers, rowErrs, nil
}

// ReadVehiclesCSV parses a vehicle CSV import
func ReadVehiclesCSV(r io.Reader, tenantID uint) ([]model.Vehicle, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}
	idx, err := headerIndex(header, VehicleColumns)
	if err != nil {
		return nil, nil, err
	}

	var vehicles []model.Vehicle
	var rowErrs []RowError
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err.Error()})
			continue
		}
		field := func(name string) string {
			if i := idx[name]; i < len(record) {
				return record[i]
			}
			return ""
		}
		customerID, err := strconv.ParseUint(field("customer_id"), 10, 32)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: "invalid customer_id"})
			continue
		}
		year, _ := strconv.Atoi(field("year"))
		mileage, _ := strconv.Atoi(field("mileage"))
		vehicles = append(vehicles, model.Vehicle{
			TenantID:     tenantID,
			CustomerID:   uint(customerID),
			Year:         year,
			Make:         field("make"),
			Model:        field("model"),
			VIN:          field("vin"),
			LicensePlate: field("license_plate"),
			Mileage:      mileage,
		})
	}
	return vehicles, rowErrs, nil
}
