package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/analyzer"
	"github.com/sells-group/outreach-cli/internal/budget"
	"github.com/sells-group/outreach-cli/internal/cache"
	"github.com/sells-group/outreach-cli/internal/campaign"
	"github.com/sells-group/outreach-cli/internal/contact"
	"github.com/sells-group/outreach-cli/internal/search"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/internal/trends"
	anthropicpkg "github.com/sells-group/outreach-cli/pkg/anthropic"
	"github.com/sells-group/outreach-cli/pkg/exa"
	"github.com/sells-group/outreach-cli/pkg/jina"
	"github.com/sells-group/outreach-cli/pkg/serper"
)

// discoveryEnv holds the initialized store, governor, and pipeline shared by
// the discover/serve/export commands.
type discoveryEnv struct {
	Store    store.Store
	Governor *budget.Governor
	Cache    *cache.Cache
	Pipeline *campaign.Pipeline
}

// Close persists the budget ledger and releases the store. The yaml snapshot
// is written alongside the database copy so the ledger survives a wiped
// database.
func (e *discoveryEnv) Close(ctx context.Context) {
	if e.Governor != nil {
		snapshot := e.Governor.Snapshot()
		if e.Store != nil {
			if err := e.Store.SaveLedger(ctx, snapshot); err != nil {
				zap.L().Warn("save ledger to store", zap.Error(err))
			}
		}
		if cfg.Budget.LedgerPath != "" {
			if err := budget.SaveLedger(snapshot, cfg.Budget.LedgerPath); err != nil {
				zap.L().Warn("save ledger snapshot", zap.Error(err))
			}
		}
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, search backends, governor, and pipeline.
// Callers should defer env.Close(ctx).
func initEnv(ctx context.Context) (*discoveryEnv, error) {
	if cfg.Exa.Key == "" && cfg.Serper.Key == "" {
		return nil, eris.New("at least one search backend key is required (OUTREACH_EXA_KEY or OUTREACH_SERPER_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	rates := budget.Rates{
		ExaPerQuery:    cfg.Budget.ExaPerQuery,
		SerperPerQuery: cfg.Budget.SerperPerQuery,
	}
	gov, err := budget.NewGovernor(rates, cfg.Budget.MonthlyLimitUSD)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	// Restore the ledger: the database copy wins, the yaml snapshot is the
	// fallback for fresh databases.
	if ledger, lerr := st.LoadLedger(ctx); lerr != nil {
		zap.L().Warn("load ledger from store", zap.Error(lerr))
	} else if ledger != nil {
		gov.RestoreLedger(*ledger)
	} else if cfg.Budget.LedgerPath != "" {
		ledgerFile, ferr := budget.LoadLedger(cfg.Budget.LedgerPath, cfg.Budget.MonthlyLimitUSD, time.Now())
		if ferr != nil {
			zap.L().Warn("load ledger snapshot", zap.Error(ferr))
		} else {
			gov.RestoreLedger(ledgerFile)
		}
	}

	resultCache := cache.New(time.Duration(cfg.Search.CacheTTLHours) * time.Hour)

	var exaBackend, serperBackend search.Backend
	var serperClient serper.Client
	if cfg.Exa.Key != "" {
		exaBackend = search.NewExaBackend(exa.NewClient(cfg.Exa.Key, exa.WithBaseURL(cfg.Exa.BaseURL)))
	} else {
		zap.L().Warn("OUTREACH_EXA_KEY not set, exa backend disabled")
	}
	if cfg.Serper.Key != "" {
		serperClient = serper.NewClient(cfg.Serper.Key, serper.WithBaseURL(cfg.Serper.BaseURL))
		serperBackend = search.NewSerperBackend(serperClient)
	} else {
		zap.L().Warn("OUTREACH_SERPER_KEY not set, serper backend disabled")
	}

	orch := search.NewOrchestrator(exaBackend, serperBackend, resultCache, gov, rates, search.Config{
		ConcurrencyPerBackend: cfg.Search.ConcurrencyPerBackend,
		RateLimitPerSec:       cfg.Search.RateLimitPerSec,
		ProbeResultCap:        cfg.Search.ProbeResultCap,
		ExpandResultCap:       cfg.Search.ExpandResultCap,
	})

	var llm analyzer.SignalChecker
	if cfg.Anthropic.Enabled && cfg.Anthropic.Key != "" {
		llm = analyzer.NewClaudeChecker(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
		zap.L().Info("llm signal check enabled", zap.String("model", cfg.Anthropic.Model))
	}
	an := analyzer.New(cfg.Analyzer, llm)

	var jinaClient jina.Client
	if cfg.Jina.Key != "" {
		jinaClient = jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL))
	}
	contacts := contact.NewPageExtractor(jinaClient)

	var trendProvider trends.Provider
	if serperClient != nil {
		trendProvider = trends.NewSerperProvider(serperClient)
	}

	p := campaign.New(cfg, st, trendProvider, gov, resultCache, orch, an, contacts)

	return &discoveryEnv{
		Store:    st,
		Governor: gov,
		Cache:    resultCache,
		Pipeline: p,
	}, nil
}
