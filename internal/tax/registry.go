package tax

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ReloadChannel carries rate reload notices between processes.
const ReloadChannel = "tax.rates.reload"

// Source produces the rate table for a year.
type Source interface {
	Fetch(ctx context.Context, year TaxYear) (RateTables, error)
}

// Registry hands out read-only rate table snapshots, loading each year once.
type Registry struct {
	source   Source
	notifier *ReloadNotifier
	logger   *slog.Logger
	origin   string

	mu     sync.RWMutex
	tables map[TaxYear]RateTables
	group  singleflight.Group
}

// NewRegistry constructs a registry. notifier may be nil for single-process use.
func NewRegistry(source Source, notifier *ReloadNotifier, logger *slog.Logger) *Registry {
	if source == nil {
		source = StatutorySource{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if notifier != nil {
		notifier.logger = logger
	}
	return &Registry{
		source:   source,
		notifier: notifier,
		logger:   logger,
		origin:   uuid.NewString(),
		tables:   make(map[TaxYear]RateTables),
	}
}

// Load returns the snapshot for year, fetching it on first access.
func (r *Registry) Load(ctx context.Context, year TaxYear) (RateTables, error) {
	if err := year.Validate(); err != nil {
		return RateTables{}, err
	}
	if tables, ok := r.cached(year); ok {
		return tables.Clone(), nil
	}
	v, err, _ := r.group.Do(year.String(), func() (any, error) {
		if tables, ok := r.cached(year); ok {
			return tables, nil
		}
		tables, err := r.fetch(ctx, year)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if existing, ok := r.tables[year]; ok {
			r.mu.Unlock()
			return existing, nil
		}
		r.tables[year] = tables
		r.mu.Unlock()
		r.logger.Info("rate table loaded", slog.Int("tax_year", int(year)), slog.String("statute", tables.Statute))
		return tables, nil
	})
	if err != nil {
		return RateTables{}, err
	}
	return v.(RateTables).Clone(), nil
}

// Reload refetches year, swaps the snapshot once the new table validates and
// tells other processes to drop theirs.
func (r *Registry) Reload(ctx context.Context, year TaxYear) (RateTables, error) {
	if err := year.Validate(); err != nil {
		return RateTables{}, err
	}
	tables, err := r.fetch(ctx, year)
	if err != nil {
		return RateTables{}, err
	}
	r.mu.Lock()
	r.tables[year] = tables
	r.mu.Unlock()
	r.logger.Warn("rate table reloaded", slog.Int("tax_year", int(year)), slog.String("statute", tables.Statute))

	if err := r.notifier.Publish(ctx, ReloadNotice{TaxYear: year, Origin: r.origin}); err != nil {
		r.logger.Error("publish rate reload", slog.Int("tax_year", int(year)), slog.Any("error", err))
	}
	return tables.Clone(), nil
}

// Loaded lists the years currently held in memory.
func (r *Registry) Loaded() []TaxYear {
	r.mu.RLock()
	defer r.mu.RUnlock()
	years := make([]TaxYear, 0, len(r.tables))
	for year := range r.tables {
		years = append(years, year)
	}
	return years
}

// ListenForReload drops snapshots announced as reloaded by other processes.
func (r *Registry) ListenForReload(ctx context.Context) error {
	return r.notifier.Listen(ctx, func(notice ReloadNotice) {
		if notice.Origin == r.origin {
			return
		}
		r.mu.Lock()
		delete(r.tables, notice.TaxYear)
		r.mu.Unlock()
		r.logger.Info("rate table invalidated", slog.Int("tax_year", int(notice.TaxYear)))
	})
}

func (r *Registry) cached(year TaxYear) (RateTables, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tables, ok := r.tables[year]
	return tables, ok
}

func (r *Registry) fetch(ctx context.Context, year TaxYear) (RateTables, error) {
	tables, err := r.source.Fetch(ctx, year)
	if err != nil {
		return RateTables{}, err
	}
	if tables.TaxYear != year {
		return RateTables{}, misconfigured("tax_year", "source returned table for "+tables.TaxYear.String())
	}
	if err := tables.Validate(); err != nil {
		return RateTables{}, err
	}
	return tables.Clone(), nil
}

// ReloadNotice announces that a year's table changed.
type ReloadNotice struct {
	TaxYear TaxYear `json:"tax_year"`
	Origin  string  `json:"origin"`
}

// ReloadNotifier publishes and receives reload notices over Redis pub/sub.
type ReloadNotifier struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewReloadNotifier wraps client. A nil client makes every call a no-op.
func NewReloadNotifier(client *redis.Client) *ReloadNotifier {
	return &ReloadNotifier{client: client, channel: ReloadChannel, logger: slog.Default()}
}

// Publish sends a notice.
func (n *ReloadNotifier) Publish(ctx context.Context, notice ReloadNotice) error {
	if n == nil || n.client == nil {
		return nil
	}
	payload, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.channel, payload).Err()
}

// Listen subscribes and dispatches notices to fn until ctx ends. It returns
// once the subscription is confirmed.
func (n *ReloadNotifier) Listen(ctx context.Context, fn func(ReloadNotice)) error {
	if n == nil || n.client == nil {
		return nil
	}
	pubsub := n.client.Subscribe(ctx, n.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var notice ReloadNotice
				if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
					n.logger.Warn("malformed reload notice", slog.String("channel", msg.Channel), slog.Any("error", err))
					continue
				}
				fn(notice)
			}
		}
	}()
	return nil
}
