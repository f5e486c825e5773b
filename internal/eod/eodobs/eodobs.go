package eodobs

import (
	"context"
	"time"

	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/logger"
	"trading-bot-backend/internal/trace"
)

type observableEodSummarizer struct {
	summarizer interfaces.EodSummarizer
}

var _ interfaces.EodSummarizer = (*observableEodSummarizer)(nil)

func Wrap(summarizer interfaces.EodSummarizer) interfaces.EodSummarizer {
	return &observableEodSummarizer{
		summarizer: summarizer,
	}
}

func (oes *observableEodSummarizer) SummarizeDay(ctx context.Context, day time.Time) (string, error) {
	ctx, span := trace.StartSpan(ctx, "eod.SummarizeDay")
	defer span.End()

	date := day.Format("2006-01-02")
	logger.InfoSkip(ctx, 1, "Starting EOD summary generation", "date", date)

	csvPath, err := oes.summarizer.SummarizeDay(ctx, day)
	return oes.report(ctx, date, csvPath, err)
}

func (oes *observableEodSummarizer) SummarizeToday(ctx context.Context) (string, error) {
	ctx, span := trace.StartSpan(ctx, "eod.SummarizeToday")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Starting today's EOD summary generation")

	csvPath, err := oes.summarizer.SummarizeToday(ctx)
	return oes.report(ctx, "today", csvPath, err)
}

func (oes *observableEodSummarizer) report(ctx context.Context, date, csvPath string, err error) (string, error) {
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 2, "EOD summary generation failed", err, "date", date)
		return "", err
	}
	if csvPath == "" {
		logger.InfoSkip(ctx, 2, "No trades found for EOD summary", "date", date)
		return "", nil
	}
	logger.InfoSkip(ctx, 2, "EOD summary generated successfully", "date", date, "csv_path", csvPath)
	return csvPath, nil
}
