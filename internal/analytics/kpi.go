package analytics

import (
	"wastelens/pkg/contracts/domain"
)

// PreConsumerStage is the stage label counted by the pre-consumer KPI.
// Matching is exact and case-sensitive.
const PreConsumerStage = "Pre-Consumer"

// KPIs computes the scalar summary metrics for a filtered view. Every
// metric is zero-safe: an empty view yields zeros and the "N/A"
// loss-reason sentinel rather than NaN or a division error.
func KPIs(ds domain.Dataset) domain.KPISnapshot {
	var totalCost, totalWeight float64
	preConsumer := 0

	for _, rec := range ds.Records {
		totalCost += rec.Cost
		totalWeight += rec.Weight
		if rec.StageOfProcessing == PreConsumerStage {
			preConsumer++
		}
	}

	avgCostPerKg := 0.0
	if totalWeight > 0 {
		avgCostPerKg = totalCost / totalWeight
	}

	preConsumerPct := 0.0
	if len(ds.Records) > 0 {
		preConsumerPct = 100 * float64(preConsumer) / float64(len(ds.Records))
	}

	return domain.KPISnapshot{
		TotalCost:      totalCost,
		TotalWeight:    totalWeight,
		AvgCostPerKg:   avgCostPerKg,
		TopLossReason:  topLossReason(ds.Records),
		PreConsumerPct: preConsumerPct,
		RecordCount:    len(ds.Records),
		Currency:       ds.Currency,
	}
}

// topLossReason returns the most frequent non-missing lossReason value.
// Ties break toward the value seen first, so the result is stable with
// respect to input order. "N/A" when every value is missing.
func topLossReason(records []domain.WasteRecord) string {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, rec := range records {
		if rec.LossReason == "" {
			continue
		}
		if _, seen := counts[rec.LossReason]; !seen {
			order = append(order, rec.LossReason)
		}
		counts[rec.LossReason]++
	}

	if len(order) == 0 {
		return domain.TopLossReasonNA
	}

	top := order[0]
	for _, reason := range order[1:] {
		if counts[reason] > counts[top] {
			top = reason
		}
	}
	return top
}
