package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

const (
	cycleSheet    = "Breath Cycle"
	settingsSheet = "Settings"
)

var cycleHeader = []string{"Sample", "Pressure (cmH2O)", "Flow (L/min)", "Volume (mL)", "EtCO2 (mmHg)"}

// WriteWorkbook writes one breath cycle of f as an xlsx workbook: the
// four curves sample by sample, and a sheet of settings and metrics.
func WriteWorkbook(w io.Writer, r waveform.Request, f waveform.Frame) error {
	x := excelize.NewFile()
	defer x.Close()

	if err := x.SetSheetName("Sheet1", cycleSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := x.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, h := range cycleHeader {
		if err := setCell(x, cycleSheet, col+1, 1, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(cycleHeader), 1)
	if err := x.SetCellStyle(cycleSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}
	if err := x.SetColWidth(cycleSheet, "B", "E", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	curves := f.Curves()
	for i := 0; i < waveform.Length; i++ {
		row := i + 2
		if err := setCell(x, cycleSheet, 1, row, i); err != nil {
			return err
		}
		for c, curve := range curves {
			if err := setCell(x, cycleSheet, c+2, row, curve.At(i)); err != nil {
				return err
			}
		}
	}

	if err := x.SetPanes(cycleSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze panes: %w", err)
	}

	if _, err := x.NewSheet(settingsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	m := f.Metrics
	rows := [][2]any{
		{"Mode", string(r.Settings.Mode)},
		{"Pathology", string(r.Pathology)},
		{"Patient class", string(r.Patient.Class)},
		{"Weight (kg)", r.Patient.WeightKg},
		{"PEEP (cmH2O)", r.Settings.PEEP},
		{"PIP (cmH2O)", r.Settings.PIP},
		{"RR (/min)", r.Settings.RespiratoryRate},
		{"I:E", r.Settings.IERatio},
		{"Rise time", r.Settings.RiseTime},
		{"Tidal volume (mL)", m.TidalVolume},
		{"Minute ventilation (L/min)", m.MinuteVentilation},
		{"Plateau (cmH2O)", m.Plateau},
		{"Driving pressure (cmH2O)", m.DrivingPressure},
		{"Auto-PEEP (cmH2O)", m.AutoPEEPLevel},
		{"TV bounds min (mL)", m.Bounds.Min},
		{"TV bounds max (mL)", m.Bounds.Max},
	}
	for i, kv := range rows {
		if err := setCell(x, settingsSheet, 1, i+1, kv[0]); err != nil {
			return err
		}
		if err := setCell(x, settingsSheet, 2, i+1, kv[1]); err != nil {
			return err
		}
	}
	if err := x.SetColWidth(settingsSheet, "A", "A", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := x.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(x *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := x.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
	}
	return nil
}
