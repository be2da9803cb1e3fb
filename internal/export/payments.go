package export

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"hostel/api/internal/model"
)

const paymentsSheet = "Payments"

var paymentHeaders = []interface{}{
	"Payment ID", "Student ID", "Student", "Email", "Month", "Amount", "Method", "Status", "Paid At",
}

// WritePayments renders the payment ledger as an XLSX workbook.
func WritePayments(w io.Writer, payments []model.Payment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", paymentsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(paymentsSheet, "A1", &paymentHeaders); err != nil {
		return err
	}
	for i, p := range payments {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			p.ID,
			p.StudentID,
			studentName(p),
			deref(p.Email),
			p.Month,
			p.Amount,
			p.PaymentMethod,
			p.Status,
			p.PaymentDate.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(paymentsSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(paymentsSheet, "A", "I", 16); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

func studentName(p model.Payment) string {
	return strings.TrimSpace(deref(p.FirstName) + " " + deref(p.LastName))
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
