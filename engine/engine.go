package engine

import (
	"log"

	"partsdesk/config"
	"partsdesk/parts"
	"partsdesk/routing"
	"partsdesk/store"
	"partsdesk/tasks"
	"partsdesk/warehouse"
)

// Engine centralizes all business logic and orchestrates subsystems.
type Engine struct {
	cfg        *config.Config
	configPath string
	db         *store.DB

	orderMgr     *parts.Manager
	taskMgr      *tasks.Manager
	warehouseMgr *warehouse.Manager
	reconciler   *tasks.Reconciler

	Events *EventBus
}

// Config holds the parameters needed to create an Engine.
type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
}

// New creates a new Engine. Call Start() to initialize and wire subsystems.
func New(c Config) *Engine {
	return &Engine{
		cfg:        c.AppConfig,
		configPath: c.ConfigPath,
		db:         c.DB,
		Events:     NewEventBus(),
	}
}

// Start creates all managers and starts background work.
func (e *Engine) Start() {
	topic := e.cfg.Messaging.NotificationTopic

	e.orderMgr = parts.NewManager(e.db, &orderEmitter{bus: e.Events}, topic)
	router := routing.New(e.cfg.Routing.PriorityGroups)
	e.taskMgr = tasks.NewManager(e.db, e.orderMgr, router, &taskEmitter{bus: e.Events})
	e.warehouseMgr = warehouse.NewManager(e.db, e.orderMgr, &warehouseEmitter{bus: e.Events})

	e.reconciler = tasks.NewReconciler(e.taskMgr, e.cfg.Sync.ReconcileInterval)
	e.reconciler.Start()

	log.Printf("Engine started: company=%s priority_groups=%d reconcile=%s",
		e.cfg.CompanyName, len(e.cfg.Routing.PriorityGroups), e.cfg.Sync.ReconcileInterval)
}

// Stop shuts down background work gracefully.
func (e *Engine) Stop() {
	if e.reconciler != nil {
		e.reconciler.Stop()
	}
	log.Printf("Engine stopped")
}

// DB returns the database handle.
func (e *Engine) DB() *store.DB { return e.db }

// AppConfig returns the app config.
func (e *Engine) AppConfig() *config.Config { return e.cfg }

// ConfigPath returns the config file path.
func (e *Engine) ConfigPath() string { return e.configPath }

// Orders returns the part-order manager.
func (e *Engine) Orders() *parts.Manager { return e.orderMgr }

// Tasks returns the fulfillment task manager.
func (e *Engine) Tasks() *tasks.Manager { return e.taskMgr }

// Warehouse returns the warehouse manager.
func (e *Engine) Warehouse() *warehouse.Manager { return e.warehouseMgr }
