// Package statemachine implements the status transition registry backing
// mobile sync consistency. Per logical domain (task, ticket, attendance, plus
// anything registered at runtime) it holds a table of legal transitions, an
// enforcement policy and a default status, and answers "may this record move
// from A to B" purely in memory. Persisting the resulting status change is
// the caller's concern.
package statemachine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// domainConfig is the immutable per-domain state. RegisterDomain builds a
// fresh value and swaps the pointer under lock, so readers holding a config
// never observe partial updates.
type domainConfig struct {
	// transitions is an adjacency list keyed by uppercased from-status.
	transitions   map[string][]Transition
	policy        Policy
	defaultStatus string
	// allStatuses is the from/to union computed once at registration.
	allStatuses map[string]struct{}
}

// Registry is the single source of truth for legal status changes.
// Safe for concurrent use: registration serializes against reads.
type Registry struct {
	mu      sync.RWMutex
	domains map[string]*domainConfig
	logger  *slog.Logger
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates a registry pre-seeded with the built-in sync domains.
func New(opts ...Option) *Registry {
	r := &Registry{
		domains: make(map[string]*domainConfig),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	registerBuiltins(r)
	return r
}

// RegisterDomain installs or fully replaces the transition table for a
// domain. The domain key is case-sensitive; statuses are normalized to
// uppercase. An empty policy defaults to strict, an empty default status to
// "NEW". The transition list is stored as given: duplicates, unreachable
// statuses and explicit self-loops are not validated away.
func (r *Registry) RegisterDomain(domain string, transitions []Transition, policy Policy, defaultStatus string) {
	if policy == "" {
		policy = PolicyStrict
	}
	if defaultStatus == "" {
		defaultStatus = "NEW"
	}

	cfg := &domainConfig{
		transitions:   make(map[string][]Transition, len(transitions)),
		policy:        policy,
		defaultStatus: strings.ToUpper(defaultStatus),
		allStatuses:   make(map[string]struct{}, len(transitions)*2),
	}
	for _, t := range transitions {
		from := strings.ToUpper(t.From)
		cfg.transitions[from] = append(cfg.transitions[from], t)
		cfg.allStatuses[from] = struct{}{}
		cfg.allStatuses[strings.ToUpper(t.To)] = struct{}{}
	}

	r.mu.Lock()
	r.domains[domain] = cfg
	r.mu.Unlock()

	r.logger.Info("registered transition domain",
		"domain", domain,
		"policy", policy.String(),
		"transitions", len(transitions),
	)
}

// ValidateTransition reports whether a record in the given domain may move
// from one status to another. It never panics: unexpected faults during
// evaluation deny the transition with a generic reason. A nil context is
// valid and equivalent to an empty one.
func (r *Registry) ValidateTransition(domain, fromStatus, toStatus string, context map[string]any) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("transition validation fault",
				"domain", domain,
				"from_status", fromStatus,
				"to_status", toStatus,
				"panic", fmt.Sprintf("%v", rec),
			)
			result = Result{Allowed: false, Reason: fmt.Sprintf("Validation error: %v", rec)}
		}
	}()

	cfg := r.config(domain)
	if cfg == nil {
		// Fail-open: unknown domains impose no restriction until
		// explicitly locked down.
		return Result{Allowed: true, Reason: fmt.Sprintf("No transitions configured for domain %q", domain)}
	}

	from := strings.ToUpper(fromStatus)
	to := strings.ToUpper(toStatus)
	if from == "" {
		from = cfg.defaultStatus
	}
	if to == "" {
		to = cfg.defaultStatus
	}

	// Self-transitions are always legal, registered or not.
	if from == to {
		return Result{Allowed: true, Reason: "Same status"}
	}

	var match *Transition
	candidates := cfg.transitions[from]
	for i := range candidates {
		if strings.ToUpper(candidates[i].To) == to {
			match = &candidates[i]
			break
		}
	}

	if match == nil {
		if cfg.policy == PolicyPermissive {
			return Result{
				Allowed:  true,
				Reason:   "Allowed under permissive policy",
				Warnings: []string{fmt.Sprintf("Transition %s → %s is not explicitly defined", from, to)},
			}
		}
		return Result{Allowed: false, Reason: fmt.Sprintf("%s → %s not allowed", from, to)}
	}

	if len(match.Conditions) > 0 {
		if res := evaluateConditions(match.Conditions, context); !res.Allowed {
			return res
		}
	}

	var warnings []string
	if match.RequiresPermission != "" {
		res := checkPermission(match.RequiresPermission, context)
		if !res.Allowed {
			return res
		}
		warnings = res.Warnings
	}

	reason := match.Description
	if reason == "" {
		reason = "allowed"
	}
	return Result{Allowed: true, Reason: reason, Warnings: warnings}
}

// AllowedTransitions returns the statuses reachable from fromStatus in one
// hop, using the same normalization as ValidateTransition. Unknown domains
// yield an empty list: this is a read-only introspection helper, not a
// policy gate, so it does not share the fail-open default.
func (r *Registry) AllowedTransitions(domain, fromStatus string) []string {
	cfg := r.config(domain)
	if cfg == nil {
		return nil
	}
	from := strings.ToUpper(fromStatus)
	if from == "" {
		from = cfg.defaultStatus
	}
	candidates := cfg.transitions[from]
	out := make([]string, 0, len(candidates))
	for _, t := range candidates {
		out = append(out, strings.ToUpper(t.To))
	}
	return out
}

// DomainStatuses returns every status that appears in the domain's
// transition table, sorted. Unknown domains yield an empty list.
func (r *Registry) DomainStatuses(domain string) []string {
	cfg := r.config(domain)
	if cfg == nil {
		return nil
	}
	out := make([]string, 0, len(cfg.allStatuses))
	for s := range cfg.allStatuses {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// DefaultStatus returns the domain's default status, or "" for unknown
// domains.
func (r *Registry) DefaultStatus(domain string) string {
	cfg := r.config(domain)
	if cfg == nil {
		return ""
	}
	return cfg.defaultStatus
}

// HasDomain reports whether the domain has a registered config.
func (r *Registry) HasDomain(domain string) bool {
	return r.config(domain) != nil
}

func (r *Registry) config(domain string) *domainConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.domains[domain]
}
