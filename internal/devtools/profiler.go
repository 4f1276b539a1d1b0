// Package devtools profiles requests: collectors gather data during the MVC
// lifecycle and the resulting reports are kept for the toolbar.
package devtools

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/usuarios/internal/core/events/bus"
	"github.com/zeusync/usuarios/internal/core/observability/log"
	"github.com/zeusync/usuarios/internal/devtools/collector"
	"github.com/zeusync/usuarios/internal/mvc"
)

// Listener priorities on the application topic.
const (
	EventCollectPriority = math.MaxInt
	CollectPriority      = -9500
)

// Report is the profile of one request.
type Report struct {
	Token      string         `json:"token"`
	URI        string         `json:"uri"`
	Method     string         `json:"method"`
	Status     int            `json:"status"`
	Time       time.Time      `json:"time"`
	Duration   time.Duration  `json:"duration"`
	Collectors map[string]any `json:"collectors"`
}

var _ mvc.ListenerAggregate = (*Profiler)(nil)

// Profiler creates a fresh set of collectors for every request bus it is
// attached to and stores a Report when the request finishes.
type Profiler struct {
	factories []collector.Factory
	store     *ReportStore
	logger    log.Log
	onReport  []func(Report)
}

func NewProfiler(store *ReportStore, logger log.Log, factories ...collector.Factory) *Profiler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Profiler{factories: factories, store: store, logger: logger}
}

// OnReport registers a callback run synchronously for every stored report.
func (p *Profiler) OnReport(fn func(Report)) {
	p.onReport = append(p.onReport, fn)
}

func (p *Profiler) Attach(b bus.EventBus) error {
	collectors := make([]collector.Collector, 0, len(p.factories))
	for _, f := range p.factories {
		collectors = append(collectors, f())
	}
	sort.SliceStable(collectors, func(i, j int) bool {
		return collectors[i].Priority() > collectors[j].Priority()
	})

	var eventCollectors []collector.EventCollector
	for _, c := range collectors {
		if ec, ok := c.(collector.EventCollector); ok {
			eventCollectors = append(eventCollectors, ec)
		}
	}

	if len(eventCollectors) > 0 {
		if _, err := b.SubscribeTopic(mvc.Topic, bus.Wildcard, func(e bus.Event) error {
			for _, ec := range eventCollectors {
				ec.CollectEvent(collector.ApplicationID, e)
			}
			return nil
		}, bus.WithPriority(EventCollectPriority)); err != nil {
			return err
		}
	}

	_, err := b.SubscribeTopic(mvc.Topic, mvc.EventFinish, func(e bus.Event) error {
		me, ok := mvc.FromBusEvent(e)
		if !ok {
			return nil
		}
		p.collect(me, collectors)
		return nil
	}, bus.WithPriority(CollectPriority))
	return err
}

func (p *Profiler) collect(e *mvc.Event, collectors []collector.Collector) {
	report := Report{
		Token:      uuid.NewString(),
		Status:     e.Status,
		Time:       e.Start,
		Duration:   time.Since(e.Start),
		Collectors: make(map[string]any, len(collectors)),
	}
	if e.Request != nil {
		report.URI = e.Request.URL.RequestURI()
		report.Method = e.Request.Method
	}
	for _, c := range collectors {
		c.Collect(e)
		report.Collectors[c.Name()] = c.Data()
	}

	p.store.Add(report)
	p.logger.Debug("profile stored",
		log.String("token", report.Token),
		log.String("uri", report.URI),
		log.Int("collectors", len(collectors)),
	)
	for _, fn := range p.onReport {
		fn(report)
	}
}
