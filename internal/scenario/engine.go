package scenario

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"market-sim-lab/internal/domain"
)

// Transform rewrites a market record. It receives a private copy.
type Transform func(domain.Record) (domain.Record, error)

// Trigger decides whether a dynamic scenario applies to a record.
type Trigger func(domain.Record) bool

// Recorder receives scenario application events for metrics.
type Recorder interface {
	ScenarioApplied(name string)
}

type dynamic struct {
	name      string
	trigger   Trigger
	transform Transform
}

// Engine holds named static transforms and ordered dynamic scenarios.
//
// For each record ApplyAll runs the active static transform first, then every
// dynamic scenario in registration order whose trigger matches the record as
// produced by the previous step. Registration may happen concurrently with
// ApplyAll; triggers and transforms run outside the engine lock.
type Engine struct {
	mu      sync.RWMutex
	static  map[string]Transform
	dynamic []dynamic
	names   map[string]struct{}
	active  string
	applied map[string]int

	recorder Recorder
	logger   *zap.Logger
}

// NewEngine creates an empty engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		static:  make(map[string]Transform),
		names:   make(map[string]struct{}),
		applied: make(map[string]int),
		logger:  logger,
	}
}

// SetRecorder installs a metrics recorder.
func (e *Engine) SetRecorder(r Recorder) {
	e.mu.Lock()
	e.recorder = r
	e.mu.Unlock()
}

// RegisterStatic registers a named transform that can be activated.
func (e *Engine) RegisterStatic(name string, t Transform) error {
	if name == "" || t == nil {
		return fmt.Errorf("%w: static %q", ErrInvalidScenario, name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.names[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateScenario, name)
	}
	e.names[name] = struct{}{}
	e.static[name] = t
	e.logger.Debug("static scenario registered", zap.String("scenario", name))
	return nil
}

// RegisterDynamic registers a scenario applied whenever trigger matches.
func (e *Engine) RegisterDynamic(name string, trigger Trigger, t Transform) error {
	if name == "" || trigger == nil || t == nil {
		return fmt.Errorf("%w: dynamic %q", ErrInvalidScenario, name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.names[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateScenario, name)
	}
	e.names[name] = struct{}{}
	e.dynamic = append(e.dynamic, dynamic{name: name, trigger: trigger, transform: t})
	e.logger.Debug("dynamic scenario registered", zap.String("scenario", name))
	return nil
}

// Activate selects the static scenario applied to every record.
// An empty name deactivates static transforms.
func (e *Engine) Activate(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if name != "" {
		if _, ok := e.static[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownScenario, name)
		}
	}
	e.active = name
	return nil
}

// Active returns the active static scenario name.
func (e *Engine) Active() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

// Apply runs the named static scenario on rec.
func (e *Engine) Apply(name string, rec domain.Record) (domain.Record, error) {
	e.mu.RLock()
	t, ok := e.static[name]
	e.mu.RUnlock()

	if !ok {
		return rec, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	return e.run(name, t, rec)
}

// ApplyAll runs the active static scenario and every matching dynamic
// scenario on rec. The input record is never modified. Any error aborts
// the record and is returned as a *TransformError.
func (e *Engine) ApplyAll(rec domain.Record) (domain.Record, error) {
	e.mu.RLock()
	active := e.active
	staticT := e.static[active]
	dyn := make([]dynamic, len(e.dynamic))
	copy(dyn, e.dynamic)
	e.mu.RUnlock()

	out := rec
	var err error
	if active != "" {
		if out, err = e.run(active, staticT, out); err != nil {
			return rec, err
		}
	}

	for _, d := range dyn {
		matched, err := e.evaluate(d, out)
		if err != nil {
			return rec, err
		}
		if !matched {
			continue
		}
		if out, err = e.run(d.name, d.transform, out); err != nil {
			return rec, err
		}
	}
	return out, nil
}

// Stats returns how many times each scenario has been applied.
func (e *Engine) Stats() map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]int, len(e.applied))
	for k, v := range e.applied {
		out[k] = v
	}
	return out
}

func (e *Engine) evaluate(d dynamic, rec domain.Record) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TransformError{Scenario: d.name, Err: fmt.Errorf("trigger panic: %v", r)}
		}
	}()
	return d.trigger(rec.Clone()), nil
}

func (e *Engine) run(name string, t Transform, rec domain.Record) (out domain.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TransformError{Scenario: name, Err: fmt.Errorf("transform panic: %v", r)}
		}
	}()

	out, err = t(rec.Clone())
	if err != nil {
		return rec, &TransformError{Scenario: name, Err: err}
	}

	e.mu.Lock()
	e.applied[name]++
	recorder := e.recorder
	e.mu.Unlock()

	if recorder != nil {
		recorder.ScenarioApplied(name)
	}
	return out, nil
}
