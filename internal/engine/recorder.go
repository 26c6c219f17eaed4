package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"db-recorder/internal/checker"
	"db-recorder/internal/dialect"
	"db-recorder/internal/registry"
	"db-recorder/internal/schema"
)

var (
	ErrAlreadyRunning = errors.New("recorder already running")
	ErrNotRunning     = errors.New("recorder not running")
	ErrOverload       = errors.New("recorder task queue overloaded")
	ErrNoRowsWritten  = errors.New("insert affected no rows")
)

const (
	DefaultQueueCapacity = 8000
	DefaultMinWorkers    = 3
	DefaultMaxWorkers    = 5
	DefaultEngine        = "myisam"
	DefaultCharset       = "utf8"
)

// ConnSource hands out one connection per unit of work. The caller closes it.
type ConnSource func(ctx context.Context) (*sql.Conn, error)

// DBConn adapts a *sql.DB pool.
func DBConn(db *sql.DB) ConnSource { return db.Conn }

type Config struct {
	QueueCapacity int
	MinWorkers    int
	MaxWorkers    int
	Engine        string
	Charset       string
	// Executor overrides the built-in pool and its worker counts.
	Executor     Executor
	ScanPackages []string
	Catalog      *registry.Catalog
	Conn         ConnSource
	Dialect      dialect.Dialect
	// Location decides partition boundaries; nil means time.Local.
	Location *time.Location
	Logger   *slog.Logger
}

func (c *Config) setDefaults() {
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.MinWorkers <= 0 {
		c.MinWorkers = DefaultMinWorkers
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = DefaultMaxWorkers
	}
	if c.Engine == "" {
		c.Engine = DefaultEngine
	}
	if c.Charset == "" {
		c.Charset = DefaultCharset
	}
	if c.Dialect == nil {
		c.Dialect = &dialect.MysqlDialect{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Recorder writes records asynchronously into time-partitioned tables.
// Producers never block on storage: failures after Execute returns are only
// visible through LostCount.
type Recorder struct {
	cfg      Config
	logger   *slog.Logger
	namer    schema.Namer
	registry *registry.Registry
	checker  *checker.Checker
	now      func() time.Time

	mu       sync.RWMutex
	running  bool
	starting bool
	exec     Executor

	// scanned is only touched by the goroutine that owns starting.
	scanned bool

	done atomic.Int64
	lost atomic.Int64
}

func New(cfg Config) (*Recorder, error) {
	if cfg.Conn == nil {
		return nil, errors.New("recorder: connection source is required")
	}
	cfg.setDefaults()
	return &Recorder{
		cfg:      cfg,
		logger:   cfg.Logger,
		namer:    schema.Namer{Location: cfg.Location},
		registry: registry.New(cfg.Catalog, cfg.Logger),
		checker:  checker.New(cfg.Dialect, cfg.Logger),
		now:      time.Now,
	}, nil
}

func (r *Recorder) Registry() *registry.Registry { return r.registry }

// Register adds a record type to be reconciled at Start.
func (r *Recorder) Register(rt *schema.RecordType) error {
	return r.registry.Register(rt)
}

// Start registers scan packages, reconciles every registered type and
// opens the pipeline. On failure the recorder stays stopped. The state lock
// is not held while reconciling, so Execute keeps failing fast meanwhile.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running || r.starting {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.starting = true
	r.mu.Unlock()

	exec, own := r.cfg.Executor, false
	if exec == nil {
		// The overload check allows one task past capacity before refusing.
		exec, own = NewPool(r.cfg.MinWorkers, r.cfg.MaxWorkers, r.cfg.QueueCapacity+1), true
	}
	err := r.prepare(ctx)

	r.mu.Lock()
	r.starting = false
	if err == nil {
		r.exec, r.running = exec, true
	}
	r.mu.Unlock()

	if err != nil {
		if own {
			exec.ShutdownNow()
		}
		return err
	}
	r.logger.Info("recorder started", "types", r.registry.Len(), "queue_capacity", r.cfg.QueueCapacity, "dialect", r.cfg.Dialect.Name())
	return nil
}

func (r *Recorder) prepare(ctx context.Context) error {
	// Scan packages register once; a restart reconciles the same types again.
	if !r.scanned {
		var errs []error
		for _, pkg := range r.cfg.ScanPackages {
			if err := r.registry.RegisterPackage(pkg); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("register record types: %w", err)
		}
		r.scanned = true
	}

	conn, err := r.cfg.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	if _, err := r.checker.ReconcileAll(ctx, conn, r.registry); err != nil {
		return fmt.Errorf("schema check: %w", err)
	}
	return nil
}

// Execute queues rec for writing. It fails synchronously only when the
// recorder is stopped or the queue is overloaded.
func (r *Recorder) Execute(rec schema.Record) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.running {
		return ErrNotRunning
	}
	if r.exec.QueueLen() > r.cfg.QueueCapacity {
		r.lost.Add(1)
		return fmt.Errorf("%w: drop %v", ErrOverload, rec)
	}
	if err := r.exec.Submit(func() { r.run(rec) }); err != nil {
		r.lost.Add(1)
		return fmt.Errorf("%w: drop %v: %w", ErrOverload, rec, err)
	}
	return nil
}

// run is one unit of work; its result feeds the counters.
func (r *Recorder) run(rec schema.Record) {
	err := r.safeWrite(context.Background(), rec)
	r.tally(rec, err)
}

func (r *Recorder) safeWrite(ctx context.Context, rec schema.Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.write(ctx, rec)
}

func (r *Recorder) tally(rec schema.Record, err error) {
	if err != nil {
		r.lost.Add(1)
		r.logger.Error("record failed", "record", fmt.Sprint(rec), "error", err)
		return
	}
	r.done.Add(1)
}

// write ensures the partition for now exists, then inserts one row.
func (r *Recorder) write(ctx context.Context, rec schema.Record) error {
	rt := rec.RecordType()
	if rt.IsAbstract() {
		return fmt.Errorf("type %s is abstract", rt.Name())
	}
	d := r.cfg.Dialect
	table := r.namer.PhysicalName(rt, r.now().UnixMilli())

	conn, err := r.cfg.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	exists, err := checker.TableExists(ctx, conn, d, table)
	if err != nil {
		return err
	}
	if !exists {
		opts := dialect.TableOptions{Engine: r.cfg.Engine, Charset: r.cfg.Charset, Comment: rt.Name()}
		if _, err := conn.ExecContext(ctx, d.CreateTableQuery(table, rt.Columns(), opts)); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
		r.logger.Info("created table", "table", table, "type", rt.Name())
	}

	res, err := conn.ExecContext(ctx, d.InsertQuery(table, rt.FieldNames()), rec.Values()...)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("insert into %s: %w", table, ErrNoRowsWritten)
	}
	return nil
}

// Stop closes the pipeline. Tasks still queued run on the caller; Stop then
// waits for in-flight tasks until ctx is done.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrNotRunning
	}
	r.running = false
	exec := r.exec
	r.mu.Unlock()

	pending := exec.ShutdownNow()
	for _, task := range pending {
		task()
	}
	err := exec.Wait(ctx)
	r.logger.Info("recorder stopped", "drained", len(pending), "done", r.DoneCount(), "lost", r.LostCount())
	return err
}

func (r *Recorder) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

func (r *Recorder) DoneCount() int64 { return r.done.Load() }

func (r *Recorder) LostCount() int64 { return r.lost.Load() }

// QueueLen is the number of queued tasks, or 0 before the first Start.
func (r *Recorder) QueueLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.exec == nil {
		return 0
	}
	return r.exec.QueueLen()
}
