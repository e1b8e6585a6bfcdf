package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Nicholas-Amsler/lung-iq/internal/analysis"
	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
	"github.com/Nicholas-Amsler/lung-iq/internal/progress"
	"github.com/Nicholas-Amsler/lung-iq/internal/scenario"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

func request() waveform.Request {
	return waveform.Request{
		Settings:  waveform.DefaultSettings(),
		Patient:   physiology.DefaultPatient(),
		Pathology: physiology.ARDS,
		EtCO2Max:  40,
	}
}

func TestWriteJSON(t *testing.T) {
	sc, err := scenario.Default().Scenario("ards-recognition")
	require.NoError(t, err)
	now := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

	s := NewSession(Input{
		Request:  request(),
		Limits:   analysis.DefaultLimits(),
		Scenario: &sc,
		Progress: progress.Progress{LevelKey: "intermediate", Completed: []string{"normal-breathing"}},
	}, now)
	assert.Equal(t, "lungiq-session-2024-03-09.json", s.FileName())

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, s))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	params := doc["parameters"].(map[string]any)
	assert.Equal(t, 5.0, params["peep"])
	assert.Equal(t, "ards", params["condition"])
	assert.Equal(t, 40.0, params["etco2Max"])

	assert.Equal(t, []any{}, doc["alarms"])
	assert.NotNil(t, doc["quiz"])
	assert.Equal(t, 406.0, doc["assessment"].(map[string]any)["targetTV"])
	assert.Equal(t, true, doc["disclaimer"].(map[string]any)["educational_use_only"])
	assert.Equal(t, "2024-03-09T14:30:00Z", doc["timestamp"])
	assert.NotEmpty(t, doc["id"])
}

func TestNewSession_WithoutScenario(t *testing.T) {
	s := NewSession(Input{Request: request()}, time.Now())
	assert.Nil(t, s.Quiz)
	assert.Nil(t, s.Assessment)
	assert.NotEqual(t, s.ID, NewSession(Input{Request: request()}, time.Now()).ID)
}

func TestWriteWorkbook(t *testing.T) {
	r := request()
	f := waveform.NewGenerator(8).Frame(r)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, r, f))

	x, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer x.Close()

	assert.Equal(t, []string{cycleSheet, settingsSheet}, x.GetSheetList())

	rows, err := x.GetRows(cycleSheet)
	require.NoError(t, err)
	require.Len(t, rows, waveform.Length+1)
	assert.Equal(t, cycleHeader, rows[0])
	assert.Equal(t, "0", rows[1][0])
	assert.Equal(t, "99", rows[waveform.Length][0])

	mode, err := x.GetCellValue(settingsSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "volume", mode)
}
