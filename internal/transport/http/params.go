package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	apierrors "wastelens/internal/errors"
	"wastelens/pkg/contracts/domain"
)

var validate = validator.New()

const dateParamLayout = "2006-01-02"

// viewQuery is the decoded query string shared by every view-scoped
// endpoint: an optional date window plus optional categorical filters.
type viewQuery struct {
	StartDate string `validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `validate:"omitempty,datetime=2006-01-02"`
	Metric    string `validate:"omitempty,oneof=cost weight"`
	Horizon   string `validate:"omitempty,oneof=30 60 90"`
	Category  string
	Format    string `validate:"omitempty,oneof=json csv"`
}

// decodeViewQuery parses and validates the common query parameters.
func decodeViewQuery(r *http.Request) (viewQuery, error) {
	q := r.URL.Query()
	vq := viewQuery{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Metric:    q.Get("metric"),
		Horizon:   q.Get("horizon"),
		Category:  q.Get("category"),
		Format:    q.Get("format"),
	}
	if err := validate.Struct(vq); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			field := errs[0].Field()
			return viewQuery{}, apierrors.ErrValidation(field, fmt.Sprintf("invalid value for %s", field))
		}
		return viewQuery{}, apierrors.ErrValidation("query", "invalid query parameters")
	}
	return vq, nil
}

// filterSpec builds the domain filter from the decoded query. Repeated
// parameters select multiple values per dimension.
func (vq viewQuery) filterSpec(r *http.Request) (domain.FilterSpec, error) {
	q := r.URL.Query()
	spec := domain.FilterSpec{
		Regions:   q["region"],
		Sites:     q["site"],
		Locations: q["location"],
		Operators: q["operator"],
	}

	if vq.StartDate != "" {
		start, err := time.Parse(dateParamLayout, vq.StartDate)
		if err != nil {
			return domain.FilterSpec{}, apierrors.ErrValidation("start_date", "expected YYYY-MM-DD")
		}
		spec.StartDate = start
	}
	if vq.EndDate != "" {
		end, err := time.Parse(dateParamLayout, vq.EndDate)
		if err != nil {
			return domain.FilterSpec{}, apierrors.ErrValidation("end_date", "expected YYYY-MM-DD")
		}
		spec.EndDate = end
	}
	return spec, nil
}

// metric returns the selected metric, defaulting to cost.
func (vq viewQuery) metric() domain.Metric {
	if vq.Metric == "" {
		return domain.MetricCost
	}
	return domain.Metric(vq.Metric)
}

// horizon returns the selected horizon, defaulting to 30 days.
func (vq viewQuery) horizon() domain.Horizon {
	if vq.Horizon == "" {
		return domain.Horizon30
	}
	days, _ := strconv.Atoi(vq.Horizon)
	return domain.Horizon(days)
}
