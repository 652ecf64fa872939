package sync

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/ozonms/fbosync/internal/core/domain"
	"github.com/ozonms/fbosync/internal/metrics"
)

// ResolveReason is the closed set of semantic resolution failures. Any of
// them skips the whole order; transport failures are returned as plain
// errors and abort the order instead.
type ResolveReason string

const (
	ReasonNotFound             ResolveReason = "not_found"
	ReasonNoPrice              ResolveReason = "no_price"
	ReasonUnsupportedComponent ResolveReason = "unsupported_component"
	ReasonIncompleteBundle     ResolveReason = "incomplete_bundle"
)

// ResolveError reports why an article could not be resolved to a catalog
// record.
type ResolveError struct {
	Article string
	Reason  ResolveReason
	Detail  string
}

func (e *ResolveError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Article, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Article, e.Reason)
}

// Resolver resolves seller articles to catalog records. Results are cached
// by normalized article for the process lifetime; a cache hit never
// re-queries the catalog. Failed resolutions are not cached so a corrected
// catalog takes effect on the next pass.
type Resolver struct {
	catalog    Catalog
	priceLabel string
	cache      map[string]domain.AssortmentRecord
	log        *slog.Logger
}

// NewResolver creates a resolver. priceLabel is the sale-price list label
// whose value is preferred as the unit price.
func NewResolver(catalog Catalog, priceLabel string, log *slog.Logger) *Resolver {
	return &Resolver{
		catalog:    catalog,
		priceLabel: priceLabel,
		cache:      make(map[string]domain.AssortmentRecord),
		log:        log,
	}
}

// CacheSize returns the number of cached records.
func (r *Resolver) CacheSize() int {
	return len(r.cache)
}

// Resolve returns the catalog record for a seller article, consulting the
// cache first.
func (r *Resolver) Resolve(ctx context.Context, offerID string) (domain.AssortmentRecord, error) {
	article := NormalizeArticle(offerID)

	if rec, ok := r.cache[article]; ok {
		metrics.ResolverLookups.WithLabelValues("cache_hit").Inc()
		return rec, nil
	}

	rec, err := r.lookup(ctx, article)
	if err != nil {
		metrics.ResolverLookups.WithLabelValues("error").Inc()
		return domain.AssortmentRecord{}, err
	}

	r.cache[article] = rec
	metrics.ResolverLookups.WithLabelValues(string(rec.Kind)).Inc()
	metrics.ResolverCacheSize.Set(float64(len(r.cache)))
	r.log.Debug("resolved article", "article", article, "kind", rec.Kind)
	return rec, nil
}

func (r *Resolver) lookup(ctx context.Context, article string) (domain.AssortmentRecord, error) {
	ref, found, err := r.catalog.FindEntryByArticle(ctx, domain.KindProduct, article)
	if err != nil {
		return domain.AssortmentRecord{}, err
	}
	if found {
		return r.buildProduct(ctx, article, ref)
	}

	bundleRef, found, err := r.catalog.FindEntryByArticle(ctx, domain.KindBundle, article)
	if err != nil {
		return domain.AssortmentRecord{}, err
	}
	if found {
		return r.buildBundle(ctx, article, bundleRef)
	}

	return domain.AssortmentRecord{}, &ResolveError{Article: article, Reason: ReasonNotFound}
}

func (r *Resolver) buildProduct(ctx context.Context, article string, ref domain.EntityRef) (domain.AssortmentRecord, error) {
	entry, err := r.catalog.GetEntry(ctx, ref)
	if err != nil {
		return domain.AssortmentRecord{}, err
	}

	price, ok := r.unitPrice(entry)
	if !ok {
		return domain.AssortmentRecord{}, &ResolveError{
			Article: article,
			Reason:  ReasonNoPrice,
			Detail:  "product has no sale prices",
		}
	}

	return domain.AssortmentRecord{
		Article: article,
		Kind:    domain.RecordProduct,
		Ref:     entry.Ref,
		Price:   price,
	}, nil
}

func (r *Resolver) buildBundle(ctx context.Context, article string, ref domain.EntityRef) (domain.AssortmentRecord, error) {
	rows, err := r.catalog.BundleComponents(ctx, ref)
	if err != nil {
		return domain.AssortmentRecord{}, err
	}
	if len(rows) == 0 {
		return domain.AssortmentRecord{}, &ResolveError{
			Article: article,
			Reason:  ReasonIncompleteBundle,
			Detail:  "bundle has no components",
		}
	}

	components := make([]domain.Component, 0, len(rows))
	for _, row := range rows {
		if row.Ref.Href == "" || row.Ref.Type == "" {
			return domain.AssortmentRecord{}, &ResolveError{
				Article: article,
				Reason:  ReasonIncompleteBundle,
				Detail:  "component missing assortment meta",
			}
		}

		// Components must be leaf entities; a nested bundle would need
		// recursive expansion and is rejected instead.
		kind := domain.EntityKind(row.Ref.Type)
		if kind != domain.KindProduct && kind != domain.KindVariant {
			return domain.AssortmentRecord{}, &ResolveError{
				Article: article,
				Reason:  ReasonUnsupportedComponent,
				Detail:  fmt.Sprintf("component kind %s", row.Ref.Type),
			}
		}

		entry, err := r.catalog.GetEntry(ctx, row.Ref)
		if err != nil {
			return domain.AssortmentRecord{}, err
		}

		price, ok := r.unitPrice(entry)
		if !ok {
			return domain.AssortmentRecord{}, &ResolveError{
				Article: article,
				Reason:  ReasonNoPrice,
				Detail:  fmt.Sprintf("component %s has no sale prices", row.Ref.EntityID()),
			}
		}

		components = append(components, domain.Component{
			Ref:      row.Ref,
			Quantity: int(math.Round(row.Quantity)),
			Price:    price,
		})
	}

	return domain.AssortmentRecord{
		Article:    article,
		Kind:       domain.RecordBundle,
		Ref:        ref,
		Components: components,
	}, nil
}

// unitPrice applies the price policy: the entry labeled with the configured
// sale-price label wins; without one the first entry is used; an empty price
// list yields no price. Values are rounded to whole kopecks.
func (r *Resolver) unitPrice(entry domain.CatalogEntry) (int64, bool) {
	for _, p := range entry.Prices {
		if p.Label == r.priceLabel {
			return p.Value.Round(0).IntPart(), true
		}
	}
	if len(entry.Prices) > 0 {
		return entry.Prices[0].Value.Round(0).IntPart(), true
	}
	return 0, false
}
