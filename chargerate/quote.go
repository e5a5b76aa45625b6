package chargerate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/charge-rate-engine/generic"
)

// QuoteValidity is how long a draft quote can be accepted.
const QuoteValidity = 30 * 24 * time.Hour

// WeeksPerQuoteYear prices a line as a full year.
var WeeksPerQuoteYear = decimal.NewFromInt(52)

// QuoteRequest prices several apprentices for one host employer.
type QuoteRequest struct {
	HostEmployerID generic.HostEmployerID
	ApprenticeIDs  []generic.ApprenticeID
	MarginOverride *decimal.Decimal
	Year           generic.CalendarYear
}

func (r QuoteRequest) validate() error {
	if r.HostEmployerID == "" {
		return &generic.ValidationError{Field: "host_employer_id", Reason: "required"}
	}
	if len(r.ApprenticeIDs) == 0 {
		return &generic.ValidationError{Field: "apprentice_ids", Reason: "at least one apprentice is required"}
	}
	seen := make(map[generic.ApprenticeID]bool, len(r.ApprenticeIDs))
	for i, id := range r.ApprenticeIDs {
		if id == "" {
			return &generic.ValidationError{Field: fmt.Sprintf("apprentice_ids[%d]", i), Reason: "required"}
		}
		if seen[id] {
			return &generic.ValidationError{Field: fmt.Sprintf("apprentice_ids[%d]", i), Reason: "duplicate apprentice " + string(id)}
		}
		seen[id] = true
	}
	return nil
}

// GenerateQuote calculates every apprentice, then writes the calculations and
// the draft quote in one transaction. Any failure fails the whole quote;
// no apprentice is silently dropped.
//
// A line prices 52 weeks x weekly hours x the charge rate rounded to cents.
func (c *Calculator) GenerateQuote(ctx context.Context, req QuoteRequest) (*generic.Quote, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := c.store.GetHostEmployer(ctx, req.HostEmployerID); err != nil {
		return nil, err
	}

	records := make([]*generic.ChargeRateCalculation, 0, len(req.ApprenticeIDs))
	for _, apprenticeID := range req.ApprenticeIDs {
		rec, err := c.calculate(ctx, c.store, Request{
			ApprenticeID:   apprenticeID,
			HostEmployerID: req.HostEmployerID,
			MarginOverride: req.MarginOverride,
			Year:           req.Year,
		})
		if err != nil {
			return nil, fmt.Errorf("apprentice %s: %w", apprenticeID, err)
		}
		records = append(records, rec)
	}

	now := c.clock.Now()
	quote := &generic.Quote{
		ID:             generic.QuoteID(uuid.NewString()),
		HostEmployerID: req.HostEmployerID,
		Lines:          make([]generic.QuoteLine, 0, len(records)),
		TotalAmount:    decimal.Zero,
		Status:         generic.QuoteDraft,
		CreatedAt:      now,
		ValidUntil:     now.Add(QuoteValidity),
	}
	for _, rec := range records {
		line := QuoteLineFor(rec)
		quote.Lines = append(quote.Lines, line)
		quote.TotalAmount = quote.TotalAmount.Add(line.TotalPrice)
	}

	err := c.store.WithTx(ctx, func(repos generic.Repositories) error {
		for _, rec := range records {
			if err := repos.InsertCalculation(ctx, *rec); err != nil {
				return fmt.Errorf("failed to save calculation: %w", err)
			}
		}
		if err := repos.InsertQuote(ctx, *quote); err != nil {
			return fmt.Errorf("failed to save quote: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("quote generated",
		zap.String("quote_id", string(quote.ID)),
		zap.String("host_employer_id", string(quote.HostEmployerID)),
		zap.Int("lines", len(quote.Lines)),
		zap.String("total", quote.TotalAmount.StringFixed(2)),
	)
	return quote, nil
}

// QuoteLineFor prices one calculation.
func QuoteLineFor(rec *generic.ChargeRateCalculation) generic.QuoteLine {
	rate := generic.RoundCurrency(rec.Result.ChargeRate)
	return generic.QuoteLine{
		ApprenticeID:  rec.ApprenticeID,
		CalculationID: rec.ID,
		WeeklyHours:   rec.WeeklyHours,
		ChargeRate:    rate,
		TotalPrice:    generic.RoundCurrency(WeeksPerQuoteYear.Mul(rec.WeeklyHours).Mul(rate)),
	}
}

func (c *Calculator) GetQuote(ctx context.Context, id generic.QuoteID) (*generic.Quote, error) {
	return c.store.GetQuote(ctx, id)
}
