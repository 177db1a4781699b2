package container

import (
	"time"

	"coinsentry/internal/application/port"
	"coinsentry/internal/application/service"
	"coinsentry/internal/domain/catalog"
)

// Container assembles the services lazily over shared infrastructure.
// The reconciler is the only consumer the daemon itself drives; Alerts and
// Portfolio are the surface a transport (bot, HTTP API) embeds to expose
// the user-facing operations.
type Container struct {
	store    port.Store
	oracle   port.Oracle
	notifier port.Notifier
	catalog  *catalog.Catalog
	resolver *catalog.Resolver
	interval time.Duration

	alerts     *service.Alerts
	portfolio  *service.Portfolio
	valuator   *service.Valuator
	reconciler *service.Reconciler
}

func New(store port.Store, oracle port.Oracle, notifier port.Notifier, cat *catalog.Catalog, interval time.Duration) *Container {
	return &Container{
		store:    store,
		oracle:   oracle,
		notifier: notifier,
		catalog:  cat,
		resolver: catalog.NewResolver(cat, oracle),
		interval: interval,
	}
}

func (c *Container) Store() port.Store {
	return c.store
}

func (c *Container) Catalog() *catalog.Catalog {
	return c.catalog
}

func (c *Container) Resolver() *catalog.Resolver {
	return c.resolver
}

func (c *Container) Valuator() *service.Valuator {
	if c.valuator == nil {
		c.valuator = service.NewValuator(c.store, c.oracle)
	}
	return c.valuator
}

func (c *Container) Alerts() *service.Alerts {
	if c.alerts == nil {
		c.alerts = service.NewAlerts(c.store, c.oracle, c.resolver)
	}
	return c.alerts
}

func (c *Container) Portfolio() *service.Portfolio {
	if c.portfolio == nil {
		c.portfolio = service.NewPortfolio(c.store, c.oracle, c.resolver, c.Valuator())
	}
	return c.portfolio
}

func (c *Container) Reconciler() *service.Reconciler {
	if c.reconciler == nil {
		c.reconciler = service.NewReconciler(c.store, c.oracle, c.notifier, c.Valuator(), c.interval)
	}
	return c.reconciler
}

func (c *Container) Close() error {
	return c.store.Close()
}
