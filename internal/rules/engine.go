package rules

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"example.com/vgmgate/internal/common"
	"example.com/vgmgate/internal/vgm"
)

type Severity string

const (
	ERROR Severity = "ERROR"
	WARN  Severity = "WARN"
	INFO  Severity = "INFO"
)

// RuleStage groups rules by the part of the container they inspect.
type RuleStage string

const (
	StageHeader   RuleStage = "header"
	StageCommands RuleStage = "commands"
	StageMetadata RuleStage = "metadata"
	StageResource RuleStage = "resource"
	StageEncode   RuleStage = "encode"
)

type Rule struct {
	RuleId   string         `json:"ruleId"`
	Name     string         `json:"name,omitempty"`
	Stage    RuleStage      `json:"stage"`
	Severity Severity       `json:"severity"`
	Check    string         `json:"check"`
	Refs     []string       `json:"refs"`
	Params   map[string]any `json:"params,omitempty"`
	Message  string         `json:"message"`
}

type RulePack struct {
	RulePackId string `json:"rulePackId"`
	Version    string `json:"version"`
	Profile    string `json:"profile"`
	Rules      []Rule `json:"rules"`
}

type Diagnostic struct {
	Ts           time.Time `json:"ts"`
	File         string    `json:"file"`
	CommandIndex int       `json:"commandIndex,omitempty"`
	Offset       string    `json:"offset,omitempty"`
	RuleId       string    `json:"ruleId"`
	Severity     Severity  `json:"severity"`
	Message      string    `json:"message"`
	Refs         []string  `json:"refs"`
	FixSuggested bool      `json:"fixSuggested"`
	FixApplied   bool      `json:"fixApplied"`
	FixPatchId   string    `json:"fixPatchId,omitempty"`
	SampleOffset *int64    `json:"sample_offset"`
}

// GateResult is one row of the acceptance report's gate matrix.
type GateResult struct {
	Stage    RuleStage `json:"stage"`
	Severity Severity  `json:"severity"`
	RuleId   string    `json:"ruleId"`
	Name     string    `json:"name,omitempty"`
	Pass     bool      `json:"pass"`
	Findings int       `json:"findings"`
}

type AcceptanceReport struct {
	Summary struct {
		Total    int  `json:"total"`
		Errors   int  `json:"errors"`
		Warnings int  `json:"warnings"`
		Pass     bool `json:"pass"`
	} `json:"summary"`
	GateMatrix []GateResult `json:"gateMatrix"`
	Findings   []Diagnostic `json:"findings,omitempty"`
}

// Context carries the input under evaluation. Raw and File are populated
// lazily by EnsureFile so check functions can share one parse.
type Context struct {
	InputFile string
	Profile   string

	Raw     []byte
	File    *vgm.File
	Metrics *common.Metrics

	mu       sync.Mutex
	parseErr error
	parsed   bool
}

// LimitsForProfile maps a named limit profile to a parser configuration.
func LimitsForProfile(profile string) vgm.ParserConfig {
	switch profile {
	case "strict":
		return vgm.SecurityFocusedConfig()
	case "permissive":
		return vgm.PermissiveConfig()
	default:
		return vgm.DefaultConfig()
	}
}

// EnsureFile reads and parses the input once. Subsequent calls return the
// cached result, including a cached parse failure.
func (ctx *Context) EnsureFile() error {
	if ctx == nil {
		return errors.New("nil context")
	}
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.parsed {
		return ctx.parseErr
	}
	ctx.parsed = true
	if ctx.File != nil {
		return nil
	}
	if ctx.Raw == nil {
		if ctx.InputFile == "" {
			ctx.parseErr = errors.New("no input provided")
			return ctx.parseErr
		}
		data, err := os.ReadFile(ctx.InputFile)
		if err != nil {
			ctx.parseErr = err
			return err
		}
		ctx.Raw = data
	}
	plain, err := vgm.DecompressTransport(ctx.Raw)
	if err != nil {
		ctx.parseErr = fmt.Errorf("transport: %w", err)
		return ctx.parseErr
	}
	ctx.Raw = plain
	if ctx.Metrics != nil {
		ctx.Metrics.SetTotalBytes(int64(len(plain)))
	}
	f, err := vgm.DecodeFile(plain, vgm.NewTracker(LimitsForProfile(ctx.Profile)))
	if err != nil {
		ctx.parseErr = err
		return err
	}
	ctx.File = f
	if ctx.Metrics != nil {
		ctx.Metrics.AddBytes(int64(len(plain)))
		for _, c := range f.Commands {
			ctx.Metrics.AddCommand()
			if _, ok := c.(vgm.DataBlock); ok {
				ctx.Metrics.AddDataBlock(0)
			}
		}
	}
	return nil
}

// CheckFunc evaluates one rule against the context. The bool reports whether
// a fix was applied to the input.
type CheckFunc func(ctx *Context, rule Rule) (Diagnostic, bool, error)

type Engine struct {
	rulePack            RulePack
	registry            map[string]CheckFunc
	diagnostics         []Diagnostic
	includeSampleFields bool
	concurrency         int

	cbMu         sync.Mutex
	diagCallback func(Diagnostic) error
}

func NewEngine(rp RulePack) *Engine {
	return &Engine{
		rulePack:            rp,
		registry:            make(map[string]CheckFunc),
		includeSampleFields: true,
		concurrency:         1,
	}
}

func (e *Engine) Register(name string, f CheckFunc) {
	e.registry[name] = f
}

// SetConcurrency bounds the number of rules evaluated in parallel.
func (e *Engine) SetConcurrency(n int) {
	if e == nil {
		return
	}
	if n < 1 {
		n = 1
	}
	e.concurrency = n
}

// SetDiagnosticCallback registers a function invoked for every diagnostic as
// it is produced. A nil callback disables streaming.
func (e *Engine) SetDiagnosticCallback(cb func(Diagnostic) error) {
	if e == nil {
		return
	}
	e.cbMu.Lock()
	e.diagCallback = cb
	e.cbMu.Unlock()
}

func (e *Engine) emit(d Diagnostic) {
	e.cbMu.Lock()
	cb := e.diagCallback
	e.cbMu.Unlock()
	if cb != nil {
		_ = cb(d)
	}
}

func (e *Engine) Eval(ctx *Context) ([]Diagnostic, error) {
	if ctx == nil {
		return nil, errors.New("nil context")
	}
	results := make([]*Diagnostic, len(e.rulePack.Rules))
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for i, r := range e.rulePack.Rules {
		if r.Check == "" {
			continue
		}
		fn, ok := e.registry[r.Check]
		if !ok {
			d := Diagnostic{
				Ts: time.Now(), File: ctx.InputFile, RuleId: r.RuleId, Severity: WARN,
				Message: "no function for rule", Refs: r.Refs,
			}
			results[i] = &d
			e.emit(d)
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(slot int, rule Rule, fn CheckFunc) {
			defer wg.Done()
			defer func() { <-sem }()
			d, applied, err := fn(ctx, rule)
			if err != nil {
				d.Severity = ERROR
				d.Message = d.Message + " (" + err.Error() + ")"
			}
			d.FixApplied = applied
			results[slot] = &d
			e.emit(d)
		}(i, r, fn)
	}
	wg.Wait()
	diags := make([]Diagnostic, 0, len(results))
	for _, d := range results {
		if d != nil {
			diags = append(diags, *d)
		}
	}
	e.diagnostics = diags
	return diags, nil
}

func (e *Engine) WriteDiagnosticsNDJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()
	for _, d := range e.diagnostics {
		var b []byte
		if e.includeSampleFields {
			b, _ = json.Marshal(d)
		} else {
			b, _ = json.Marshal(d.toNoSamples())
		}
		w.Write(b)
		w.WriteString("\n")
	}
	return nil
}

type diagnosticNoSamples struct {
	Ts           time.Time `json:"ts"`
	File         string    `json:"file"`
	CommandIndex int       `json:"commandIndex,omitempty"`
	Offset       string    `json:"offset,omitempty"`
	RuleId       string    `json:"ruleId"`
	Severity     Severity  `json:"severity"`
	Message      string    `json:"message"`
	Refs         []string  `json:"refs"`
	FixSuggested bool      `json:"fixSuggested"`
	FixApplied   bool      `json:"fixApplied"`
	FixPatchId   string    `json:"fixPatchId,omitempty"`
}

func (d Diagnostic) toNoSamples() diagnosticNoSamples {
	return diagnosticNoSamples{
		Ts:           d.Ts,
		File:         d.File,
		CommandIndex: d.CommandIndex,
		Offset:       d.Offset,
		RuleId:       d.RuleId,
		Severity:     d.Severity,
		Message:      d.Message,
		Refs:         d.Refs,
		FixSuggested: d.FixSuggested,
		FixApplied:   d.FixApplied,
		FixPatchId:   d.FixPatchId,
	}
}

func (e *Engine) SetConfigValue(key string, value any) {
	if e == nil {
		return
	}
	switch key {
	case "diag.include_samples":
		switch v := value.(type) {
		case bool:
			e.includeSampleFields = v
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				e.includeSampleFields = b
			}
		default:
			if s, ok := value.(fmt.Stringer); ok {
				if b, err := strconv.ParseBool(s.String()); err == nil {
					e.includeSampleFields = b
				}
			}
		}
	}
}

func (e *Engine) MakeAcceptance() AcceptanceReport {
	var rep AcceptanceReport
	var errs, warns int
	byRule := make(map[string][]Diagnostic)
	for _, d := range e.diagnostics {
		switch d.Severity {
		case ERROR:
			errs++
		case WARN:
			warns++
		}
		byRule[d.RuleId] = append(byRule[d.RuleId], d)
	}
	for _, r := range e.rulePack.Rules {
		row := GateResult{
			Stage:    r.Stage,
			Severity: r.Severity,
			RuleId:   r.RuleId,
			Name:     r.Name,
			Pass:     true,
		}
		for _, d := range byRule[r.RuleId] {
			if d.Severity == ERROR {
				row.Pass = false
			}
			if d.Severity != INFO {
				row.Findings++
			}
		}
		rep.GateMatrix = append(rep.GateMatrix, row)
	}
	rep.Summary.Total = len(e.diagnostics)
	rep.Summary.Errors = errs
	rep.Summary.Warnings = warns
	rep.Summary.Pass = errs == 0
	rep.Findings = e.diagnostics
	return rep
}

func LoadRulePack(path string) (RulePack, error) {
	var rp RulePack
	b, err := os.ReadFile(path)
	if err != nil {
		return rp, err
	}
	err = json.Unmarshal(b, &rp)
	return rp, err
}

var ErrNotImplemented = errors.New("check not implemented yet")
