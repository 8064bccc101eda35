package pricing

import (
	"github.com/smallbiznis/adpricing/internal/pricing/quote"
	"github.com/smallbiznis/adpricing/internal/pricing/repository"
	"github.com/smallbiznis/adpricing/internal/pricing/resolver"
	"github.com/smallbiznis/adpricing/internal/pricing/snapshot"
	"github.com/smallbiznis/adpricing/internal/pricing/version"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(repository.Provide),
	fx.Provide(resolver.New),
	fx.Provide(snapshot.New),
	fx.Provide(version.New),
	fx.Provide(quote.New),
)
