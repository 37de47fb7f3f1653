package consolidate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consolidador-t25/tarifas-cli/internal/model"
	"github.com/consolidador-t25/tarifas-cli/internal/remote"
	"github.com/consolidador-t25/tarifas-cli/internal/store"
)

// fakeSource simulates the remote folder tree per contract number.
type fakeSource struct {
	missing  map[string]bool // navigation fails
	noAnnex  map[string]bool // TARIFAS folder empty
	current  string
	navCount int
}

func (f *fakeSource) NavigateToContract(_ context.Context, year, number, _ string) (string, error) {
	f.navCount++
	if f.missing[number] {
		return "", eris.Errorf("remote: contrato %s no encontrado", number)
	}
	f.current = number
	return "/CONTRATACION/CONTRATOS " + year + "/" + number, nil
}

func (f *fakeSource) SelectAnnex(_ context.Context) (*remote.Annex, error) {
	if f.noAnnex[f.current] {
		return nil, eris.New("remote: no se encontró archivo ANEXO 1 válido")
	}
	return &remote.Annex{Name: "ANEXO 1 TARIFAS.xlsx", RemotePath: "ANEXO 1 TARIFAS.xlsx", Origin: "Inicial"}, nil
}

func (f *fakeSource) DownloadAnnex(_ context.Context, annex *remote.Annex, destDir string) (string, error) {
	local := filepath.Join(destDir, annex.Name)
	if err := os.WriteFile(local, []byte("stub"), 0o644); err != nil {
		return "", err
	}
	return local, nil
}

// fakeExtractor returns a fixed number of records per file.
type fakeExtractor struct {
	perFile int
	fail    bool
}

func (f *fakeExtractor) Extract(_ context.Context, _, displayName string, runCtx model.RunContext) model.ExtractionResult {
	if f.fail {
		return model.ExtractionResult{
			Success: false,
			Message: "Columnas no detectadas",
			Alerts: []model.Alert{
				{Kind: model.AlertColumnsNotDetected, Message: "sin encabezados", File: displayName},
			},
		}
	}
	res := model.ExtractionResult{Success: true, ProcessedSheet: "SERVICIOS"}
	for i := 0; i < f.perFile; i++ {
		res.Services = append(res.Services, model.ServiceRecord{
			ServiceCode: "890201",
			ContractID:  runCtx.ContractID,
			Year:        runCtx.Year,
			Origin:      runCtx.Origin,
			SiteNumber:  "1",
			SourceFile:  displayName,
			SourceSheet: "SERVICIOS",
		})
	}
	res.Sites = []model.Site{{RegistrationCode: "0012345678", SiteNumber: "1"}}
	return res
}

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{DownloadDir: t.TempDir()}
}

func TestRun_AggregatesContracts(t *testing.T) {
	src := &fakeSource{}
	c := New(src, &fakeExtractor{perFile: 3}, testOptions(t))

	contracts := []model.Contract{
		{Number: "111", Year: "2025"},
		{Number: "222", Year: "2025"},
	}
	result, err := c.Run(context.Background(), contracts)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Succeeded)
	assert.Zero(t, result.Failed)
	assert.Len(t, result.Services, 6)
	assert.Contains(t, result.Message, "2/2 exitosos")

	// Caller identifiers stamped through to every record.
	for _, rec := range result.Services {
		assert.Equal(t, "2025", rec.Year)
		assert.Equal(t, "Inicial", rec.Origin)
	}
}

func TestRun_ContractNotFound(t *testing.T) {
	src := &fakeSource{missing: map[string]bool{"999": true}}
	c := New(src, &fakeExtractor{perFile: 1}, testOptions(t))

	result, err := c.Run(context.Background(), []model.Contract{
		{Number: "999", Year: "2025"},
		{Number: "111", Year: "2025"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 2)
	assert.Equal(t, model.ContractFailed, result.Results[0].Status)

	var kinds []model.AlertKind
	for _, a := range result.Alerts {
		kinds = append(kinds, a.Kind)
	}
	assert.Contains(t, kinds, model.AlertContractNotFound)
}

func TestRun_NoAnnex(t *testing.T) {
	src := &fakeSource{noAnnex: map[string]bool{"333": true}}
	c := New(src, &fakeExtractor{perFile: 1}, testOptions(t))

	result, err := c.Run(context.Background(), []model.Contract{{Number: "333", Year: "2025"}})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.NoAnnex)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, model.AlertNoAnnex, result.Alerts[0].Kind)
}

func TestRun_ExtractionFailure(t *testing.T) {
	src := &fakeSource{}
	c := New(src, &fakeExtractor{fail: true}, testOptions(t))

	result, err := c.Run(context.Background(), []model.Contract{{Number: "111", Year: "2025"}})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, model.ContractFailed, result.Results[0].Status)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, model.AlertColumnsNotDetected, result.Alerts[0].Kind)
}

func TestRun_EmptyRoster(t *testing.T) {
	c := New(&fakeSource{}, &fakeExtractor{}, testOptions(t))

	result, err := c.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "No hay contratos para procesar", result.Message)
}

func TestRun_PeriodicReconnect(t *testing.T) {
	var reconnects int
	opts := testOptions(t)
	opts.Reconnect = func(context.Context) error {
		reconnects++
		return nil
	}
	opts.ReconnectEvery = 2

	c := New(&fakeSource{}, &fakeExtractor{perFile: 1}, opts)

	contracts := make([]model.Contract, 5)
	for i := range contracts {
		contracts[i] = model.Contract{Number: string(rune('a' + i)), Year: "2025"}
	}
	_, err := c.Run(context.Background(), contracts)
	require.NoError(t, err)
	assert.Equal(t, 2, reconnects)
}

func TestRun_StorePersistence(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "run.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	c := New(&fakeSource{}, &fakeExtractor{perFile: 2}, testOptions(t)).WithStore(st)

	result, err := c.Run(context.Background(), []model.Contract{{Number: "111", Year: "2025"}})
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)

	run, err := st.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, 1, run.Succeeded)

	stored, err := st.ServicesByContract(context.Background(), result.RunID, "111-2025")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestRun_BoundedWorkers(t *testing.T) {
	opts := testOptions(t)
	opts.Workers = 4

	c := New(&fakeSource{}, &fakeExtractor{perFile: 1}, opts)

	contracts := make([]model.Contract, 8)
	for i := range contracts {
		contracts[i] = model.Contract{Number: string(rune('a' + i)), Year: "2025"}
	}
	result, err := c.Run(context.Background(), contracts)
	require.NoError(t, err)
	assert.Equal(t, 8, result.Succeeded)
	// Results keep roster order regardless of completion order.
	for i, r := range result.Results {
		assert.Equal(t, contracts[i].Number, r.Contract)
	}
}
