package context

import (
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Provider aggregates the output of a set of retrievers.
type Provider struct {
	retrievers []Retriever
	logger     *zap.Logger
}

// NewProvider creates a Provider with the given retrievers.
func NewProvider(logger *zap.Logger, retrievers ...Retriever) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		retrievers: retrievers,
		logger:     logger,
	}
}

// AddRetriever registers another retriever.
func (p *Provider) AddRetriever(r Retriever) {
	p.retrievers = append(p.retrievers, r)
}

// GetContext runs every retriever and returns their trimmed output keyed by
// retriever name. Failing retrievers are skipped.
func (p *Provider) GetContext() map[string]string {
	return p.collect(p.retrievers)
}

// GetContextForTypes is GetContext restricted to the named retrievers. An
// empty list selects all of them.
func (p *Provider) GetContextForTypes(types []string) map[string]string {
	wanted := lo.Map(types, func(t string, _ int) string {
		return strings.TrimSpace(t)
	})
	wanted = lo.Compact(wanted)
	if len(wanted) == 0 {
		return p.collect(p.retrievers)
	}

	selected := lo.Filter(p.retrievers, func(r Retriever, _ int) bool {
		return lo.Contains(wanted, r.Name())
	})
	return p.collect(selected)
}

func (p *Provider) collect(retrievers []Retriever) map[string]string {
	result := make(map[string]string, len(retrievers))
	for _, r := range retrievers {
		content, err := r.GetContext()
		if err != nil {
			p.logger.Debug("context retriever failed",
				zap.String("retriever", r.Name()),
				zap.Error(err))
			continue
		}
		result[r.Name()] = strings.TrimSpace(content)
	}
	return result
}
