package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"wastelens/internal/config"
	"wastelens/internal/dataset"
	apperrors "wastelens/internal/errors"
	"wastelens/internal/forecast"
	"wastelens/pkg/contracts/domain"
)

type fakeImporter struct {
	ds  domain.Dataset
	err error
}

func (f *fakeImporter) Import(ctx context.Context) (domain.Dataset, error) {
	return f.ds, f.err
}

func newTestService(t *testing.T, importer Importer) (*AnalyticsService, *DatasetStore) {
	t.Helper()
	forecastCfg := config.ForecastConfig{SeasonLength: 7, Alpha: 0.3, Beta: 0.1, Gamma: 0.1}
	cache := forecast.NewCache(forecast.NewForecaster(forecastCfg, nil), nil)
	store := NewDatasetStore(4, nil, cache.Invalidate)
	loader := dataset.NewLoader(nil, "$")
	return NewAnalyticsService(loader, store, cache, importer, nil), store
}

func serviceDataset(days int) domain.Dataset {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]domain.WasteRecord, days)
	for i := range records {
		d := base.AddDate(0, 0, i)
		records[i] = domain.WasteRecord{
			Date:        d,
			Cost:        float64(10 + i),
			Weight:      float64(1 + i%3),
			Region:      "North",
			Site:        "Plant A",
			MonthBucket: domain.MonthBucketOf(d),
			MonthLabel:  domain.MonthLabelOf(d),
		}
	}
	return domain.Dataset{
		ID:          "ds-1",
		Fingerprint: "fp-1",
		Currency:    "$",
		LoadedAt:    time.Now(),
		Records:     records,
	}
}

func workbookBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	rows := [][]string{
		{"Date", "Cost", "Weight", "Region"},
		{"2024-01-01", "100", "4", "North"},
		{"2024-01-02", "50", "2", "South"},
	}
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestAnalyticsService_UploadDataset(t *testing.T) {
	svc, _ := newTestService(t, nil)
	data := workbookBytes(t)

	summary, err := svc.UploadDataset(context.Background(), data)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, "$", summary.Currency)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), summary.StartDate)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), summary.EndDate)
}

func TestAnalyticsService_UploadDeduplicatesIdenticalBytes(t *testing.T) {
	svc, store := newTestService(t, nil)
	data := workbookBytes(t)

	first, err := svc.UploadDataset(context.Background(), data)
	require.NoError(t, err)
	second, err := svc.UploadDataset(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.Len())
}

func TestAnalyticsService_UploadRejectsBadWorkbook(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.UploadDataset(context.Background(), []byte("not a workbook"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLoad))
}

func TestAnalyticsService_ImportDataset(t *testing.T) {
	imported := serviceDataset(3)
	svc, _ := newTestService(t, &fakeImporter{ds: imported})

	summary, err := svc.ImportDataset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, imported.ID, summary.ID)
	assert.Equal(t, 3, summary.Records)
}

func TestAnalyticsService_ImportWithoutImporter(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.ImportDataset(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestAnalyticsService_Report(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.Put(serviceDataset(5))

	report, err := svc.Report(context.Background(), "ds-1", domain.FilterSpec{})
	require.NoError(t, err)

	assert.Equal(t, 5, report.KPIs.RecordCount)
	assert.Len(t, report.CostByDate, 5)
}

func TestAnalyticsService_ReportInvalidFilterLeavesStateIntact(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.Put(serviceDataset(5))
	bad := domain.FilterSpec{
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := svc.Report(context.Background(), "ds-1", bad)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	// The dataset is untouched; a valid request still sees all records.
	report, err := svc.Report(context.Background(), "ds-1", domain.FilterSpec{})
	require.NoError(t, err)
	assert.Equal(t, 5, report.KPIs.RecordCount)
}

func TestAnalyticsService_ReportUnknownDataset(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Report(context.Background(), "missing", domain.FilterSpec{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestAnalyticsService_Dimensions(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.Put(serviceDataset(3))

	catalog, err := svc.Dimensions(context.Background(), "ds-1", domain.FilterSpec{})
	require.NoError(t, err)
	assert.Equal(t, []string{"North"}, catalog.Regions)
	assert.Equal(t, []string{"Plant A"}, catalog.Sites)
}

func TestAnalyticsService_DimensionsNarrowedByDateRange(t *testing.T) {
	svc, store := newTestService(t, nil)
	ds := serviceDataset(2)
	ds.Records[1].Region = "South"
	ds.Records[1].Site = "Plant B"
	store.Put(ds)

	spec := domain.FilterSpec{
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		// Dimension selections must not narrow the catalog.
		Regions: []string{"South"},
	}
	catalog, err := svc.Dimensions(context.Background(), "ds-1", spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"North"}, catalog.Regions)
	assert.Equal(t, []string{"Plant A"}, catalog.Sites)
}

func TestAnalyticsService_Forecast(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.Put(serviceDataset(10))

	series, err := svc.Forecast(context.Background(), "ds-1", domain.FilterSpec{}, domain.MetricCost, domain.Horizon30)
	require.NoError(t, err)

	assert.Len(t, series.Actuals(), 10)
	assert.Len(t, series.Projected(), 30)
}

func TestAnalyticsService_ForecastBothIsolatesMetricFailures(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.Put(serviceDataset(10))

	bundle, err := svc.ForecastBoth(context.Background(), "ds-1", domain.FilterSpec{}, domain.Horizon30)
	require.NoError(t, err)

	require.NotNil(t, bundle.Cost)
	require.NotNil(t, bundle.Weight)
	assert.Nil(t, bundle.Errors)
}

func TestAnalyticsService_ForecastBothInsufficientHistory(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.Put(serviceDataset(1))

	bundle, err := svc.ForecastBoth(context.Background(), "ds-1", domain.FilterSpec{}, domain.Horizon30)
	require.NoError(t, err)

	assert.Nil(t, bundle.Cost)
	assert.Nil(t, bundle.Weight)
	require.Len(t, bundle.Errors, 2)
}

func TestAnalyticsService_ForecastBothUnknownDatasetAborts(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.ForecastBoth(context.Background(), "missing", domain.FilterSpec{}, domain.Horizon30)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestAnalyticsService_DeleteDatasetInvalidatesForecasts(t *testing.T) {
	svc, store := newTestService(t, nil)
	store.Put(serviceDataset(10))

	_, err := svc.Forecast(context.Background(), "ds-1", domain.FilterSpec{}, domain.MetricCost, domain.Horizon30)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDataset(context.Background(), "ds-1"))
	assert.Empty(t, svc.ListDatasets(context.Background()))
}
