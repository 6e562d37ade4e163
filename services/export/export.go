package export

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"quicker-admin/models/member"
)

const sheetName = "Members"

var headers = []string{"No", "Name", "Phone", "Registration Date", "Expiry Date", "Deposit", "Referrer", "CIDs"}

const cidColumn = 8

// Filename is the download name for an export taken at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("members_export_%s.xlsx", now.Format("20060102_150405"))
}

// WriteMembers renders members as a single-sheet workbook.
func WriteMembers(w io.Writer, members []member.Member) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return err
	}

	widths := make([]int, len(headers))
	track := func(col int, value string) {
		if n := utf8.RuneCountInString(value); n > widths[col-1] {
			widths[col-1] = n
		}
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
		track(i+1, h)
	}

	printer := message.NewPrinter(language.English)
	for i, m := range members {
		row := []string{
			fmt.Sprint(i + 1),
			m.Name,
			m.Phone,
			m.RegistrationDate.Format("2006-01-02"),
			m.ExpiryDate.Format("2006-01-02"),
			printer.Sprintf("%d", m.DepositAmount),
			m.Referrer,
			strings.Join(m.CIDValues(), ", "),
		}
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
			track(col+1, value)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if len(members) > 0 {
		if err := f.SetCellStyle(sheetName, "A2", fmt.Sprintf("%s%d", lastCol, len(members)+1), bodyStyle); err != nil {
			return err
		}
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		size := float64(width + 2)
		if size < 15 {
			size = 15
		}
		if i+1 == cidColumn && size < 50 {
			size = 50
		}
		if err := f.SetColWidth(sheetName, col, col, size); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}
