package domain

import (
	"context"
	"log/slog"
	"time"
)

// LoggingMiddleware returns a service middleware that logs all risk
// operations.
func LoggingMiddleware(logger *slog.Logger) func(Service) Service {
	return func(next Service) Service {
		return &loggingMiddleware{
			next:   next,
			logger: logger,
		}
	}
}

type loggingMiddleware struct {
	next   Service
	logger *slog.Logger
}

func (m *loggingMiddleware) Comprehensive(ctx context.Context, req AnalysisRequest) (*ComprehensiveReport, error) {
	start := time.Now()
	report, err := m.next.Comprehensive(ctx, req)
	partial := 0
	if report != nil {
		partial = len(report.PartialErrors)
	}
	m.logger.Info("Comprehensive",
		"chain", req.Chain,
		"address", req.ContractAddress,
		"partial_errors", partial,
		"duration", time.Since(start),
		"error", err,
	)
	return report, err
}

func (m *loggingMiddleware) FakeCollection(ctx context.Context, req AnalysisRequest) (*Report, error) {
	start := time.Now()
	report, err := m.next.FakeCollection(ctx, req)
	m.logger.Debug("FakeCollection",
		"chain", req.Chain,
		"address", req.ContractAddress,
		"duration", time.Since(start),
		"error", err,
	)
	return report, err
}

func (m *loggingMiddleware) WashTrading(ctx context.Context, req AnalysisRequest) (*Report, error) {
	start := time.Now()
	report, err := m.next.WashTrading(ctx, req)
	m.logger.Debug("WashTrading",
		"chain", req.Chain,
		"address", req.ContractAddress,
		"duration", time.Since(start),
		"error", err,
	)
	return report, err
}

func (m *loggingMiddleware) RugPull(ctx context.Context, req AnalysisRequest) (*Report, error) {
	start := time.Now()
	report, err := m.next.RugPull(ctx, req)
	m.logger.Debug("RugPull",
		"chain", req.Chain,
		"address", req.ContractAddress,
		"duration", time.Since(start),
		"error", err,
	)
	return report, err
}

func (m *loggingMiddleware) FraudMap(ctx context.Context, chain string) (*Report, error) {
	start := time.Now()
	report, err := m.next.FraudMap(ctx, chain)
	m.logger.Debug("FraudMap",
		"chain", chain,
		"duration", time.Since(start),
		"error", err,
	)
	return report, err
}
