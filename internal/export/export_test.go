package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"shopcrm/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCustomersCSV(t *testing.T) {
	customers := []model.Customer{
		{FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com", Phone: "555-0101"},
		{FirstName: "Bob", LastName: "Lee", Notes: "prefers, commas"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCustomersCSV(&buf, customers))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CustomerColumns, rows[0])
	assert.Equal(t, "Ana", rows[1][0])
	assert.Equal(t, "prefers, commas", rows[2][5])
}

func TestReadCustomersCSVRoundTrip(t *testing.T) {
	customers := []model.Customer{
		{FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com"},
		{FirstName: "Bob", LastName: "Lee", Phone: "555-0102"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCustomersCSV(&buf, customers))

	imported, rowErrs, err := ReadCustomersCSV(&buf, 7)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, imported, 2)
	assert.Equal(t, "Ana", imported[0].FirstName)
	// tenant id always comes from the caller, never the file
	assert.Equal(t, uint(7), imported[0].TenantID)
	assert.Equal(t, uint(7), imported[1].TenantID)
}

func TestReadCustomersCSVMissingColumn(t *testing.T) {
	in := "first_name,last_name\nAna,Reyes\n"
	_, _, err := ReadCustomersCSV(strings.NewReader(in), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestReadCustomersCSVReportsBadRows(t *testing.T) {
	in := strings.Join([]string{
		strings.Join(CustomerColumns, ","),
		"Ana,Reyes,ana@example.com,555-0101,,",
		",NoFirstName,x@example.com,,,",
		"Bob,Lee,bob@example.com,,,",
	}, "\n")

	customers, rowErrs, err := ReadCustomersCSV(strings.NewReader(in), 1)
	require.NoError(t, err)
	assert.Len(t, customers, 2)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, 3, rowErrs[0].Line)
}

func TestReadCustomersCSVIgnoresExtraColumns(t *testing.T) {
	in := "notes,first_name,last_name,email,phone,address,favorite_color\n" +
		"vip,Ana,Reyes,ana@example.com,555-0101,12 Main St,teal\n"

	customers, rowErrs, err := ReadCustomersCSV(strings.NewReader(in), 1)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, customers, 1)
	// column order comes from the header, not the canonical list
	assert.Equal(t, "Ana", customers[0].FirstName)
	assert.Equal(t, "vip", customers[0].Notes)
}

func TestVehiclesCSVRoundTrip(t *testing.T) {
	vehicles := []model.Vehicle{
		{CustomerID: 4, Year: 2019, Make: "Toyota", Model: "Camry", VIN: "4T1B11HK5KU211111", LicensePlate: "ABC123", Mileage: 42000},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteVehiclesCSV(&buf, vehicles))

	imported, rowErrs, err := ReadVehiclesCSV(&buf, 9)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, imported, 1)
	assert.Equal(t, uint(4), imported[0].CustomerID)
	assert.Equal(t, 2019, imported[0].Year)
	assert.Equal(t, "4T1B11HK5KU211111", imported[0].VIN)
	assert.Equal(t, uint(9), imported[0].TenantID)
}

func TestReadVehiclesCSVBadCustomerID(t *testing.T) {
	in := strings.Join(VehicleColumns, ",") + "\n" +
		"notanumber,2019,Toyota,Camry,,ABC123,42000\n"

	vehicles, rowErrs, err := ReadVehiclesCSV(strings.NewReader(in), 1)
	require.NoError(t, err)
	assert.Empty(t, vehicles)
	require.Len(t, rowErrs, 1)
	assert.Contains(t, rowErrs[0].Err, "customer_id")
}

func TestWriteWorkOrdersCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkOrdersCSV(&buf, nil))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, WorkOrderColumns, rows[0])
}
