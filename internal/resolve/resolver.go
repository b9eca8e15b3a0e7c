package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/ledgerlens/internal/ident"
	"github.com/roach88/ledgerlens/internal/ledger"
)

var tracer = otel.Tracer("github.com/roach88/ledgerlens/internal/resolve")

// Defaults applied by Settings.withDefaults.
const (
	DefaultRecordType        = "Project"
	DefaultCreationEventType = "ProjectCreated"
	DefaultTableField        = "projects"
	DefaultFanOut            = 8
	MaxFanOut                = 64
	DefaultEventWindow       = 100
	DefaultOwnedScanLimit    = 500
)

// Cascade step names. Each doubles as the Strategy of a Resolution the step
// produced.
const (
	StepDirect         = "direct"
	StepTable          = "table"
	StepEvent          = "event"
	StepOwnedRegistry  = "owned-registry"
	StepOwnedRequester = "owned-requester"
)

// Step outcomes.
const (
	OutcomeHit         = "hit"
	OutcomeMiss        = "miss"
	OutcomeSkipped     = "skipped"
	OutcomeMalformed   = "malformed"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Settings tune the cascade. Zero values select the defaults above.
type Settings struct {
	// RecordType filters direct hits and owner scans by Move type.
	RecordType string

	// TableField is the registry attribute holding the table handle.
	TableField string

	// CreationEventType selects the events the correlator scans.
	CreationEventType string

	// PageSize bounds the table enumeration (max ledger.MaxPageSize).
	PageSize int

	// FanOut bounds concurrent entry-value fetches (max MaxFanOut).
	FanOut int

	// EventWindow is how many of the most recent creation events are scanned.
	EventWindow int

	// OwnedScanLimit caps how many owned objects one scan decodes.
	OwnedScanLimit int
}

func (s Settings) withDefaults() Settings {
	if strings.TrimSpace(s.RecordType) == "" {
		s.RecordType = DefaultRecordType
	}
	if strings.TrimSpace(s.CreationEventType) == "" {
		s.CreationEventType = DefaultCreationEventType
	}
	if strings.TrimSpace(s.TableField) == "" {
		s.TableField = DefaultTableField
	}
	s.PageSize = ledger.ClampPageSize(s.PageSize)
	if s.FanOut <= 0 {
		s.FanOut = DefaultFanOut
	}
	s.FanOut = min(s.FanOut, MaxFanOut)
	if s.EventWindow <= 0 {
		s.EventWindow = DefaultEventWindow
	}
	if s.OwnedScanLimit <= 0 {
		s.OwnedScanLimit = DefaultOwnedScanLimit
	}
	return s
}

// Context carries the per-call addressing the cascade needs. The registry
// is always injected by the caller.
type Context struct {
	RegistryID  string `json:"registry_id"`
	RequesterID string `json:"requester_id,omitempty"`
}

// Step is the audited outcome of one cascade step.
type Step struct {
	Name    string `json:"step"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// Resolution is a successful (or exhausted) resolve call.
type Resolution struct {
	Record   *Record `json:"record,omitempty"`
	Strategy string  `json:"strategy,omitempty"`
	Match    string  `json:"match,omitempty"`
	TraceID  string  `json:"trace_id"`
	Steps    []Step  `json:"steps"`
}

// Resolver reconstructs Project records from a ledger.
//
// Resolver holds no per-call state and is safe for concurrent use.
type Resolver struct {
	client   ledger.Client
	settings Settings
	traceIDs TraceIDGenerator
	logger   *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTraceIDGenerator sets the trace id source. Default: UUIDv7Generator.
func WithTraceIDGenerator(g TraceIDGenerator) ResolverOption {
	return func(r *Resolver) {
		if g != nil {
			r.traceIDs = g
		}
	}
}

// New creates a Resolver reading from client.
func New(client ledger.Client, settings Settings, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:   client,
		settings: settings.withDefaults(),
		traceIDs: UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Settings returns the effective settings, defaults applied.
func (r *Resolver) Settings() Settings {
	return r.settings
}

// attempt is the state of one Resolve call. It is never shared between
// calls or goroutines.
type attempt struct {
	id     string
	rc     Context
	logger *slog.Logger

	// handle is the registry's table handle once the table step found it.
	handle string

	events       []ledger.Event
	eventsLoaded bool

	// unavailable is non-empty once some step saw evidence of the record
	// without a decodable payload.
	unavailable string

	steps []Step
}

func (a *attempt) markUnavailable(format string, args ...any) {
	if a.unavailable == "" {
		a.unavailable = fmt.Sprintf(format, args...)
	}
}

// stepFunc runs one cascade step. A nil record with a nil error is a miss.
type stepFunc func(ctx context.Context, a *attempt) (*Record, ident.MatchKind, error)

// Resolve runs the cascade for id:
//  1. direct object fetch
//  2. registry table enumeration
//  3. creation-event correlation
//  4. objects owned by the registry
//  5. objects owned by the requester
//
// The first step producing a record wins. When every step misses, the error
// is FOUND_BUT_UNAVAILABLE if any step saw evidence of the record, else
// NOT_FOUND; in both cases the returned Resolution still carries the steps
// taken. A ledger failure aborts with a TRANSPORT error and a nil
// Resolution.
func (r *Resolver) Resolve(ctx context.Context, id string, rc Context) (*Resolution, error) {
	traceID := r.traceIDs.Generate()
	ctx, span := tracer.Start(ctx, "resolve.Resolve",
		trace.WithAttributes(
			attribute.String("id", id),
			attribute.String("trace_id", traceID),
			attribute.String("registry", rc.RegistryID),
		),
	)
	defer span.End()

	a := &attempt{
		id:     strings.TrimSpace(id),
		rc:     rc,
		logger: r.logger.With("trace_id", traceID, "id", id),
	}
	res := &Resolution{TraceID: traceID}

	if ident.Normalize(a.id) == "" {
		err := NewNotFoundError(id)
		err.Message = "empty identifier"
		span.SetStatus(codes.Error, err.Error())
		res.Steps = []Step{}
		return res, err
	}

	plan := []struct {
		name string
		run  stepFunc
		skip string
	}{
		{StepDirect, r.tryDirect, ""},
		{StepTable, r.tryTable, skipIfEmpty(rc.RegistryID, "no registry")},
		{StepEvent, r.tryEvent, ""},
		{StepOwnedRegistry, r.ownedBy(StepOwnedRegistry, rc.RegistryID), skipIfEmpty(rc.RegistryID, "no registry")},
		{StepOwnedRequester, r.ownedBy(StepOwnedRequester, rc.RequesterID), skipIfEmpty(rc.RequesterID, "no requester")},
	}

	for _, p := range plan {
		if p.skip != "" {
			a.steps = append(a.steps, Step{Name: p.name, Outcome: OutcomeSkipped, Detail: p.skip})
			continue
		}
		rec, kind, err := r.runStep(ctx, a, p.name, p.run)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if rec != nil {
			res.Record = rec
			res.Strategy = p.name
			res.Match = kind.String()
			res.Steps = a.steps
			span.SetAttributes(
				attribute.String("strategy", p.name),
				attribute.String("match", res.Match),
			)
			a.logger.Info("record resolved",
				slog.String("strategy", p.name),
				slog.String("match", res.Match),
				slog.String("record_id", rec.ID),
			)
			return res, nil
		}
	}

	res.Steps = a.steps
	var err *Error
	if a.unavailable != "" {
		err = NewFoundButUnavailableError(id, a.unavailable)
	} else {
		err = NewNotFoundError(id)
	}
	span.SetStatus(codes.Error, err.Error())
	a.logger.Info("record not resolved", slog.String("code", string(err.Code)))
	return res, err
}

// runStep wraps one step in a span, classifies its error and records the
// step outcome.
func (r *Resolver) runStep(ctx context.Context, a *attempt, name string, run stepFunc) (*Record, ident.MatchKind, error) {
	ctx, span := tracer.Start(ctx, "resolve."+name)
	defer span.End()

	before := a.unavailable
	rec, kind, err := run(ctx, a)

	var re *Error
	switch {
	case err != nil && errors.As(err, &re) && re.Code == ErrCodeMalformedContainer:
		a.record(name, OutcomeMalformed, re.Message)
		span.SetAttributes(attribute.String("outcome", OutcomeMalformed))
		return nil, ident.MatchNone, nil

	case err != nil:
		a.record(name, OutcomeError, err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger call failed")
		if errors.As(err, &re) {
			return nil, ident.MatchNone, err
		}
		return nil, ident.MatchNone, newTransportError(a.id, name, err)

	case rec != nil:
		a.record(name, OutcomeHit, kind.String())
		span.SetAttributes(attribute.String("outcome", OutcomeHit), attribute.String("match", kind.String()))
		return rec, kind, nil

	case a.unavailable != before:
		a.record(name, OutcomeUnavailable, a.unavailable)
		span.SetAttributes(attribute.String("outcome", OutcomeUnavailable))
		return nil, ident.MatchNone, nil

	default:
		a.record(name, OutcomeMiss, "")
		span.SetAttributes(attribute.String("outcome", OutcomeMiss))
		return nil, ident.MatchNone, nil
	}
}

func (a *attempt) record(name, outcome, detail string) {
	a.steps = append(a.steps, Step{Name: name, Outcome: outcome, Detail: detail})
	a.logger.Debug("cascade step",
		slog.String("step", name),
		slog.String("outcome", outcome),
		slog.String("detail", detail),
	)
}

// warnSuffix flags a suffix-only match for audit.
func (a *attempt) warnSuffix(step, source, candidate string) {
	a.logger.Warn("suffix-only identifier match",
		slog.String("audit", "suffix_match"),
		slog.String("step", step),
		slog.String("source", source),
		slog.String("candidate", candidate),
	)
}

func skipIfEmpty(s, reason string) string {
	if strings.TrimSpace(s) == "" {
		return reason
	}
	return ""
}
